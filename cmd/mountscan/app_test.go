package main

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/chazu/mountscan/pkg/kernel/sdfx"
	"github.com/chazu/mountscan/pkg/scan"
)

func newTestApp() *App {
	return NewApp(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
		sdfx.WithCells(24))
}

func readExample(t *testing.T, name string) string {
	t.Helper()
	source, err := os.ReadFile("../../examples/" + name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(source)
}

// TestE2ETriangleExample exercises the full pipeline: script -> engine ->
// structure -> search -> markers.
func TestE2ETriangleExample(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(readExample(t, "triangle.ms"), Request{Markers: true})

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if result.Structure != "triangle" || result.Atoms != 3 {
		t.Fatalf("got structure %q with %d atoms", result.Structure, result.Atoms)
	}
	if result.Settings.Element != "H" || result.Settings.BondLength != 1.0 {
		t.Errorf("settings = %+v", result.Settings)
	}

	r := result.Report
	if r == nil {
		t.Fatal("expected a report")
	}
	if len(r.MultiPoints) != 2 {
		t.Fatalf("expected 2 multi points, got %s", r)
	}
	if len(r.Spheres)+len(r.Circles)+len(r.CutPoints) != 0 {
		t.Errorf("expected only multi points, got %s", r)
	}
	for _, p := range r.MultiPoints {
		if p.CN() != 3 {
			t.Errorf("multi point %v has cn %d, want 3", p.Coord(), p.CN())
		}
	}
	if len(result.Markers) != 2 {
		t.Errorf("expected 2 markers, got %d", len(result.Markers))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("meshes were not requested, got %d", len(result.Meshes))
	}
}

func TestE2EFlagsOverrideScript(t *testing.T) {
	app := newTestApp()
	req := Request{}
	req.Settings.BondLength = 0.5
	result := app.Evaluate(readExample(t, "triangle.ms"), req)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if got := len(result.Report.Spheres); got != 3 {
		t.Errorf("expected 3 free spheres at r=0.5, got %s", result.Report)
	}
}

func TestE2EOctahedronCheckAtom(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(readExample(t, "octahedron.ms"), Request{})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Atoms != 7 {
		t.Fatalf("expected 7 atoms, got %d", result.Atoms)
	}
	for _, s := range result.Report.Sites() {
		ids := s.AtomIDs()
		if ids[0] != 0 {
			t.Errorf("site %s does not involve the scanned metal: %v", s.Kind, ids)
		}
	}
	if len(result.Report.Circles) != 6 {
		t.Errorf("expected one circle per Fe-O pair, got %s", result.Report)
	}
}

func TestE2EChainExample(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(readExample(t, "chain.ms"), Request{})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Atoms != 7 || result.Settings.Element != "O" {
		t.Fatalf("got %d atoms, settings %+v", result.Atoms, result.Settings)
	}
	if result.Report.Len() == 0 {
		t.Error("expected sites on the chain")
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate("", Request{Mesh: true})

	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if result.Report != nil {
		t.Error("expected no report for empty source")
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil || result.Errors == nil || result.Warnings == nil || result.Available == nil {
		t.Error("result slices should be non-nil")
	}
}

// TestE2ESyntaxError ensures eval errors are reported, not fatal errors.
func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate("(+ 1 2)\n(structure \"test\"", Request{})

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	if result.Report != nil {
		t.Error("expected no report on error")
	}
}

func TestE2EValidationErrors(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(`
(atom "C" (vec3 0 0 0))
(atom "C" (vec3 0 0 0))
`, Request{})
	if len(result.Errors) == 0 {
		t.Fatal("coincident atoms should be reported")
	}
	if !strings.Contains(result.Errors[0].Message, "atom") {
		t.Errorf("unexpected message %q", result.Errors[0].Message)
	}
}

func TestE2EValidationWarnings(t *testing.T) {
	app := newTestApp()
	// 0.5 apart is far below 0.6 x 1.52 for two carbons.
	result := app.Evaluate(`
(atom "C" (vec3 0 0 0))
(atom "C" (vec3 0.5 0 0))
(mount :bond-length 1)
`, Request{})
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a close-contact warning")
	}
	if result.Report == nil {
		t.Error("warnings must not block the search")
	}
}

func TestE2ECheckOutOfRange(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(readExample(t, "triangle.ms"), Request{Check: []int{9}})
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an unknown check atom")
	}
}

func TestE2EUnknownElementFlag(t *testing.T) {
	app := newTestApp()
	req := Request{}
	req.Settings.Element = "Qq"
	result := app.Evaluate(readExample(t, "triangle.ms"), req)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for an unknown element")
	}
}

func TestE2EMeshes(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(readExample(t, "triangle.ms"), Request{Mesh: true})
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	want := []string{"atoms", scan.SiteMultiPoint.String()}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.Label != want[i] {
			t.Errorf("mesh %d label = %q, want %q", i, m.Label, want[i])
		}
		if len(m.Vertices) == 0 || len(m.Indices) == 0 {
			t.Errorf("mesh %q has no geometry", m.Label)
		}
		if m.Color == "" {
			t.Errorf("mesh %q: no color assigned", m.Label)
		}
	}
}

func TestE2ERapidEvaluation(t *testing.T) {
	// Rapid sequential calls on the same App exercise the engine's
	// generation counter. We verify no panics and that each result
	// matches its own source.
	app := newTestApp()

	sources := []string{
		`(atom "C" (vec3 0 0 0)) (mount :bond-length 1)`,
		`(+ 1 2)`,
		``,
		`(atom "C" (vec3 0 0 0)) (atom "O" (vec3 5 0 0)) (mount :bond-length 1)`,
		`(structure "broken"`,
	}
	wantAtoms := []int{1, 0, 0, 2, 0}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			result := app.Evaluate(source, Request{})
			if result.Atoms != wantAtoms[i] {
				t.Errorf("iteration %d: got %d atoms, want %d", i, result.Atoms, wantAtoms[i])
			}
		}()
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app := newTestApp()
	result := app.Evaluate(";; just a comment\n; another\n", Request{})
	if len(result.Errors) != 0 {
		t.Errorf("comment-only source should not error: %v", result.Errors)
	}
	if result.Atoms != 0 {
		t.Errorf("expected no atoms, got %d", result.Atoms)
	}
}
