// Package engine evaluates structure scripts. It wraps zygomys in a
// sandboxed environment and produces a structure.Model plus mount
// settings from user source code.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/mountscan/pkg/structure"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// MountSettings are the search parameters a script may set with `mount`.
// Zero values mean "use the default".
type MountSettings struct {
	Element    string  `json:"element,omitempty" yaml:"element,omitempty"`
	BondLength float64 `json:"bond_length,omitempty" yaml:"bond_length,omitempty"`
	Lower      float64 `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper      float64 `json:"upper,omitempty" yaml:"upper,omitempty"`
}

// Script is the output of a successful evaluation.
type Script struct {
	Model *structure.Model
	Mount MountSettings
}

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs longer than the engine's limit.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after a
	// newer Evaluate call on the same engine.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

type evalResult struct {
	script *Script
	errors []EvalError
	err    error
}

// Evaluate takes Lisp source code and produces a new Script.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns script + nil errors + nil error
//   - On parse/eval failure: returns nil script + eval errors + nil error
//   - On fatal failure (timeout, panic, cancellation): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Script, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate bounded by ctx as well as the engine timeout.
// A cancelled wait leaves the interpreter goroutine to finish in the
// background; its result is dropped.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*Script, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{script: s, errors: evalErrs, err: err}
	}()

	return e.wait(ctx, ch, gen)
}

// wait blocks for the interpreter result. A result whose generation is no
// longer current is discarded with ErrSuperseded.
func (e *Engine) wait(ctx context.Context, ch <-chan evalResult, gen uint64) (*Script, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("generation %d of %d: %w", gen, current, ErrSuperseded)
		}
		return res.script, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("after %s: %w", e.timeout, ErrTimeout)
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("engine: %w", ctx.Err())
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Script, []EvalError, error) {
	script := &Script{Model: structure.New("")}

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return script, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, script)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return script, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// No line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
