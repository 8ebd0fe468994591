package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/mountscan/pkg/engine"
	"github.com/chazu/mountscan/pkg/mount"
	"github.com/chazu/mountscan/pkg/render"
	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
)

// Result is the outcome of one task. Err is set when the task failed; the
// other tasks of a batch still run.
type Result struct {
	JobID    string
	Task     Task
	Model    *structure.Model
	Settings engine.MountSettings
	Report   *scan.FinalReport
	Markers  []render.Marker
	Duration time.Duration
	Err      error
}

// Runner executes tasks with bounded concurrency.
type Runner struct {
	concurrency int
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency limits how many tasks run at once.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) { r.concurrency = max(n, 1) }
}

// WithLogger sets the logger passed to every task.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a Runner. The default concurrency is 1.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{concurrency: 1, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes all tasks and returns their results in input order.
// Individual task failures are reported in Result.Err; Run itself only
// fails when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	results := make([]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, t := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Task: t, Err: err}
				return err
			}
			results[i] = r.RunTask(gctx, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch cancelled: %w", err)
	}

	failed := lo.CountBy(results, func(res Result) bool { return res.Err != nil })
	r.logger.Info("batch finished", "tasks", len(tasks), "failed", failed)
	return results, nil
}

// RunTask evaluates the task's script, searches it and writes the output
// file when one is configured.
func (r *Runner) RunTask(ctx context.Context, t Task) Result {
	res := Result{JobID: uuid.NewString(), Task: t}
	log := r.logger.With("job", res.JobID, "task", t.Name)
	start := time.Now()

	res.Err = r.runTask(ctx, t, &res, log)
	res.Duration = time.Since(start)
	if res.Err != nil {
		log.Error("task failed", "err", res.Err)
	} else {
		log.Info("task finished", "sites", res.Report.String(), "elapsed", res.Duration)
	}
	return res
}

func (r *Runner) runTask(ctx context.Context, t Task, res *Result, log *slog.Logger) error {
	if err := t.Validate(); err != nil {
		return err
	}
	src, err := os.ReadFile(t.Script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	// One engine per task: an engine discards results superseded by a newer
	// evaluation on the same instance.
	script, evalErrs, err := engine.NewEngine().EvaluateContext(ctx, string(src))
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", t.Script, err)
	}
	if len(evalErrs) > 0 {
		return fmt.Errorf("evaluate %s: %w", t.Script,
			errors.Join(lo.Map(evalErrs, func(e engine.EvalError, _ int) error { return e })...))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := script.Model
	if len(t.Check) > 0 {
		m.AddCheck(t.Check...)
	}
	if t.CheckBox != nil {
		m.SetCheckBox(*t.CheckBox)
	}
	vr := structure.ValidateAll(m)
	for _, w := range vr.Warnings {
		log.Warn("structure warning", "atom", w.Atom, "msg", w.Message)
	}
	if err := vr.Err(); err != nil {
		return fmt.Errorf("structure %q: %w", m.Name, err)
	}
	res.Model = m

	res.Settings = Resolve(t, script.Mount)
	checker, err := mount.New(MountOptions(res.Settings, log)...)
	if err != nil {
		return err
	}
	var searchOpts []mount.SearchOption
	if t.OnlyAvailable {
		searchOpts = append(searchOpts, mount.OnlyAvailable())
	}
	report, err := checker.SearchModel(m, searchOpts...)
	if err != nil {
		return err
	}
	res.Report = report

	if t.Markers {
		if res.Markers, err = render.Markers(report); err != nil {
			return err
		}
	}
	if t.Output != "" {
		if err := WriteOutput(t.Output, t.Format, NewOutput(*res)); err != nil {
			return err
		}
		log.Debug("wrote output", "path", t.Output)
	}
	return nil
}

// Resolve merges task settings over script settings. Zero values are
// left for mount.New to default.
func Resolve(t Task, fromScript engine.MountSettings) engine.MountSettings {
	return engine.MountSettings{
		Element:    lo.Ternary(t.Element != "", t.Element, fromScript.Element),
		BondLength: lo.Ternary(t.BondLength > 0, t.BondLength, fromScript.BondLength),
		Lower:      lo.Ternary(t.Lower > 0, t.Lower, fromScript.Lower),
		Upper:      lo.Ternary(t.Upper > 0, t.Upper, fromScript.Upper),
	}
}

// MountOptions converts settings into checker options, skipping zero
// fields.
func MountOptions(s engine.MountSettings, log *slog.Logger) []mount.Option {
	opts := []mount.Option{mount.WithLogger(log)}
	if s.Element != "" {
		opts = append(opts, mount.WithElement(s.Element))
	}
	if s.BondLength > 0 {
		opts = append(opts, mount.WithBondLength(s.BondLength))
	}
	if s.Lower > 0 || s.Upper > 0 {
		lower := lo.Ternary(s.Lower > 0, s.Lower, mount.DefaultLowerFactor)
		upper := lo.Ternary(s.Upper > 0, s.Upper, mount.DefaultUpperFactor)
		opts = append(opts, mount.WithBondWindow(lower, upper))
	}
	return opts
}
