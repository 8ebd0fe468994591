package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/chazu/mountscan/pkg/engine"
	"github.com/chazu/mountscan/pkg/mount"
	"github.com/chazu/mountscan/pkg/render"
	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
)

// Output is the document written for a finished task.
type Output struct {
	JobID     string               `json:"job_id" yaml:"job_id"`
	Task      string               `json:"task" yaml:"task"`
	Structure string               `json:"structure" yaml:"structure"`
	Atoms     int                  `json:"atoms" yaml:"atoms"`
	Settings  engine.MountSettings `json:"settings" yaml:"settings"`
	Summary   string               `json:"summary" yaml:"summary"`
	Report    *scan.FinalReport    `json:"report" yaml:"report"`
	Markers   []render.Marker      `json:"markers,omitempty" yaml:"markers,omitempty"`
	Marked    *structure.Model     `json:"marked,omitempty" yaml:"marked,omitempty"`
}

// NewOutput builds the output document for a result. When markers were
// requested the structure is also emitted with one marker atom per site,
// using the target element.
func NewOutput(res Result) Output {
	out := Output{
		JobID:    res.JobID,
		Task:     res.Task.Name,
		Settings: res.Settings,
		Report:   res.Report,
		Markers:  res.Markers,
	}
	if res.Model != nil {
		out.Structure = res.Model.Name
		out.Atoms = len(res.Model.Atoms)
	}
	if res.Report != nil {
		out.Summary = res.Report.String()
	}
	if len(res.Markers) > 0 && res.Model != nil {
		symbol := res.Settings.Element
		if symbol == "" {
			symbol = mount.DefaultElement
		}
		out.Marked = render.WithMarkers(res.Model, res.Markers, symbol)
	}
	return out
}

// Encode serialises v in the given format.
func Encode(v any, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(v)
	case FormatJSON, "":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// WriteOutput encodes v and writes it to path, creating parent
// directories.
func WriteOutput(path, format string, v any) error {
	data, err := Encode(v, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
