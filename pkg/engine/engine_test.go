package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

const pairScript = `
;; Two carbons and a distant oxygen.
(def c1 (atom "C" (vec3 0 0 0)))
(def c2 (atom "C" (vec3 1.5 0 0)))
(structure "pair" c1 c2 (atom "O" (vec3 10 0 0)))
(check c1 c2)
(mount :element "H" :bond-length 1.0)
`

func TestEvaluateBlankSource(t *testing.T) {
	for _, src := range []string{"   \n\t  \n  ", ";; nothing but a comment\n"} {
		s, evalErrs, err := NewEngine().Evaluate(src)
		if err != nil {
			t.Fatalf("%q: unexpected fatal error: %v", src, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("%q: unexpected eval errors: %v", src, evalErrs)
		}
		if s == nil || len(s.Model.Atoms) != 0 {
			t.Errorf("%q: expected an empty model, got %+v", src, s)
		}
		if s != nil && s.Mount != (MountSettings{}) {
			t.Errorf("%q: expected zero mount settings, got %+v", src, s.Mount)
		}
	}
}

func TestEvaluateStructureScript(t *testing.T) {
	s, evalErrs, err := NewEngine().Evaluate(pairScript)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}

	if s.Model.Name != "pair" {
		t.Errorf("name = %q, want pair", s.Model.Name)
	}
	wantSymbols := []string{"C", "C", "O"}
	if len(s.Model.Atoms) != len(wantSymbols) {
		t.Fatalf("expected %d atoms, got %d", len(wantSymbols), len(s.Model.Atoms))
	}
	for i, a := range s.Model.Atoms {
		if a.Symbol != wantSymbols[i] || a.Index != i {
			t.Errorf("atom %d = %+v", i, a)
		}
	}
	if !vecNear(s.Model.Atoms[2].Coord, v3.Vec{X: 10}) {
		t.Errorf("oxygen at %v", s.Model.Atoms[2].Coord)
	}
	if ids := s.Model.CheckIDs(); len(ids) != 2 || ids[0] != 0 || ids[1] != 1 {
		t.Errorf("CheckIDs = %v, want [0 1]", ids)
	}
	if want := (MountSettings{Element: "H", BondLength: 1.0}); s.Mount != want {
		t.Errorf("Mount = %+v, want %+v", s.Mount, want)
	}
}

func TestEvaluateFreshSandboxPerCall(t *testing.T) {
	eng := NewEngine()

	if _, evalErrs, err := eng.Evaluate(pairScript); err != nil || len(evalErrs) > 0 {
		t.Fatalf("first evaluation failed: %v %v", err, evalErrs)
	}

	// c1 was defined by the previous script only.
	s, evalErrs, err := eng.Evaluate("(check c1)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil script when a previous definition leaks")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error for the undefined atom reference")
	}

	s, _, _ = eng.Evaluate(`(atom "N" (vec3 0 0 1))`)
	if s == nil || len(s.Model.Atoms) != 1 || s.Mount != (MountSettings{}) {
		t.Errorf("expected a fresh model with one atom and no mount settings, got %+v", s)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	first, _, err := eng.Evaluate(pairScript)
	if err != nil || first == nil {
		t.Fatalf("first evaluation failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		s, evalErrs, err := eng.Evaluate(pairScript)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if len(s.Model.Atoms) != len(first.Model.Atoms) {
			t.Fatalf("iteration %d: %d atoms, want %d", i, len(s.Model.Atoms), len(first.Model.Atoms))
		}
		for j, a := range s.Model.Atoms {
			if a != first.Model.Atoms[j] {
				t.Errorf("iteration %d: atom %d = %+v, want %+v", i, j, a, first.Model.Atoms[j])
			}
		}
		if s.Mount != first.Mount {
			t.Errorf("iteration %d: Mount = %+v, want %+v", i, s.Mount, first.Mount)
		}
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	// Unbalanced paren inside a structure form.
	s, evalErrs, err := NewEngine().Evaluate("(structure \"x\"\n  (atom \"C\" (vec3 0 0 0))")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil script on syntax error")
	}
	if len(evalErrs) == 0 || evalErrs[0].Message == "" {
		t.Fatalf("expected a populated eval error, got %v", evalErrs)
	}
}

func TestEvaluateBuiltinErrorDiscardsModel(t *testing.T) {
	// The first atom is valid; the unknown element on line 3 aborts the script.
	source := "(atom \"C\" (vec3 0 0 0))\n\n(atom \"Xx\" (vec3 1 0 0))"
	s, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if s != nil {
		t.Fatalf("expected no partial model, got %d atoms", len(s.Model.Atoms))
	}
	if len(evalErrs) == 0 || evalErrs[0].Message == "" {
		t.Fatalf("expected a populated eval error, got %v", evalErrs)
	}
	if evalErrs[0].Line > 0 {
		t.Logf("extracted line info: line=%d, message=%q", evalErrs[0].Line, evalErrs[0].Message)
	}
}

func TestEvaluateConcurrentEngines(t *testing.T) {
	done := make(chan *Script, 4)
	for i := 0; i < cap(done); i++ {
		go func() {
			s, _, _ := NewEngine().Evaluate(pairScript)
			done <- s
		}()
	}
	for i := 0; i < cap(done); i++ {
		if s := <-done; s == nil || len(s.Model.Atoms) != 3 {
			t.Errorf("evaluation %d: expected three atoms, got %+v", i, s)
		}
	}
}

func TestEvalErrorString(t *testing.T) {
	tests := []struct {
		err  EvalError
		want string
	}{
		{EvalError{Line: 5, Message: "atom: symbol: unknown element"}, "line 5: atom: symbol: unknown element"},
		{EvalError{Message: "check: atom 9 not defined"}, "check: atom 9 not defined"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Waiting on the interpreter
// ---------------------------------------------------------------------------

func TestWaitTimeout(t *testing.T) {
	eng := NewEngine()
	eng.timeout = 20 * time.Millisecond
	eng.generation = 1

	start := time.Now()
	_, _, err := eng.wait(context.Background(), make(chan evalResult), 1)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestWaitSuperseded(t *testing.T) {
	eng := NewEngine()
	eng.generation = 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{script: &Script{}}

	_, _, err := eng.wait(context.Background(), ch, 1)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if !strings.Contains(err.Error(), "generation 1 of 2") {
		t.Errorf("expected generation context in %q", err)
	}
}

func TestWaitContextCancelled(t *testing.T) {
	eng := NewEngine()
	eng.generation = 1
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := eng.wait(ctx, make(chan evalResult), 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvaluateContextLiveContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), EvalTimeout)
	defer cancel()

	s, evalErrs, err := NewEngine().EvaluateContext(ctx, pairScript)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected failure: %v %v", err, evalErrs)
	}
	if len(s.Model.Atoms) != 3 {
		t.Errorf("expected three atoms, got %d", len(s.Model.Atoms))
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line", "Error on line 3: atom: symbol: unknown element \"Xx\"\n", 3, "unknown element"},
		{"short line form", "line 7: check: atom 4 not defined", 7, "atom 4 not defined"},
		{"no line info", "mount: bond-length must be positive", 0, "mount: bond-length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %v", errs)
			}
			if errs[0].Line != tt.wantLine {
				t.Errorf("line = %d, want %d", errs[0].Line, tt.wantLine)
			}
			if !strings.Contains(errs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", errs[0].Message, tt.wantMsg)
			}
		})
	}
}
