// Package task loads batch search tasks from YAML and runs them
// concurrently. A task names a structure script plus the mount settings
// and check region to search it with.
package task

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/chazu/mountscan/pkg/element"
	"github.com/chazu/mountscan/pkg/structure"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrInvalidTask is wrapped by every validation failure.
var ErrInvalidTask = errors.New("invalid task")

// Task is one search. Zero mount fields fall back to the script's mount
// settings, then to the package defaults of mount.
type Task struct {
	Name          string         `json:"name" yaml:"name"`
	Script        string         `json:"script" yaml:"script"`
	Element       string         `json:"element,omitempty" yaml:"element,omitempty"`
	BondLength    float64        `json:"bond_length,omitempty" yaml:"bond_length,omitempty"`
	Lower         float64        `json:"lower,omitempty" yaml:"lower,omitempty"`
	Upper         float64        `json:"upper,omitempty" yaml:"upper,omitempty"`
	OnlyAvailable bool           `json:"only_available,omitempty" yaml:"only_available,omitempty"`
	Check         []int          `json:"check,omitempty" yaml:"check,omitempty"`
	CheckBox      *structure.Box `json:"check_box,omitempty" yaml:"check_box,omitempty"`
	Output        string         `json:"output,omitempty" yaml:"output,omitempty"`
	Format        string         `json:"format,omitempty" yaml:"format,omitempty"`
	Markers       bool           `json:"markers,omitempty" yaml:"markers,omitempty"`
}

// Config is the top-level task file.
type Config struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
	Tasks       []Task `json:"tasks" yaml:"tasks"`
}

// DefaultTask returns the values a task starts from before the file's
// fields are applied.
func DefaultTask() Task {
	return Task{Format: FormatJSON}
}

// DefaultConfig returns the configuration used when a field is omitted.
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		Concurrency: runtime.NumCPU(),
	}
}

// Load reads a task file, applies defaults, resolves script and output
// paths relative to the file and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read task file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes and validates a task file. Relative paths are kept as-is.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	var raw struct {
		LogLevel    string      `yaml:"log_level"`
		Concurrency int         `yaml:"concurrency"`
		Tasks       []yaml.Node `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse task file: %w", err)
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.Concurrency != 0 {
		cfg.Concurrency = raw.Concurrency
	}
	for i := range raw.Tasks {
		t := DefaultTask()
		if err := raw.Tasks[i].Decode(&t); err != nil {
			return Config{}, fmt.Errorf("task %d: %w", i, err)
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(filepath.Base(t.Script), filepath.Ext(t.Script))
		}
		cfg.Tasks = append(cfg.Tasks, t)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for i := range c.Tasks {
		t := &c.Tasks[i]
		if t.Script != "" && !filepath.IsAbs(t.Script) {
			t.Script = filepath.Join(dir, t.Script)
		}
		if t.Output != "" && !filepath.IsAbs(t.Output) {
			t.Output = filepath.Join(dir, t.Output)
		}
	}
}

// Validate checks the file-level settings and every task.
func (c Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: concurrency must be >= 1, got %d", ErrInvalidTask, c.Concurrency))
	}
	if len(c.Tasks) == 0 {
		errs = append(errs, fmt.Errorf("%w: no tasks", ErrInvalidTask))
	}
	for i, t := range c.Tasks {
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("task %d (%s): %w", i, t.Name, err))
		}
	}
	names := lo.Map(c.Tasks, func(t Task, _ int) string { return t.Name })
	for _, dup := range lo.FindDuplicates(names) {
		errs = append(errs, fmt.Errorf("%w: duplicate task name %q", ErrInvalidTask, dup))
	}
	outputs := lo.Compact(lo.Map(c.Tasks, func(t Task, _ int) string { return t.Output }))
	for _, dup := range lo.FindDuplicates(outputs) {
		errs = append(errs, fmt.Errorf("%w: output %q written by more than one task", ErrInvalidTask, dup))
	}
	return errors.Join(errs...)
}

// Validate checks a single task.
func (t Task) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidTask}, args...)...))
	}

	if t.Script == "" {
		fail("script is required")
	}
	if t.Element != "" && !element.Known(t.Element) {
		fail("unknown element %q", t.Element)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"bond_length", t.BondLength}, {"lower", t.Lower}, {"upper", t.Upper}} {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			fail("%s must be a non-negative number, got %v", f.name, f.v)
		}
	}
	if t.Lower > 0 && t.Upper > 0 && t.Lower >= t.Upper {
		fail("lower (%v) must be below upper (%v)", t.Lower, t.Upper)
	}
	if lo.SomeBy(t.Check, func(id int) bool { return id < 0 }) {
		fail("check ids must be non-negative")
	}
	if t.CheckBox != nil && t.CheckBox.Inverted() {
		fail("check_box max is below min")
	}
	switch t.Format {
	case FormatJSON, FormatYAML:
	default:
		fail("format must be %q or %q, got %q", FormatJSON, FormatYAML, t.Format)
	}
	return errors.Join(errs...)
}
