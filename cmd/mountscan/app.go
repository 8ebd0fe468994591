package main

import (
	"fmt"
	"log/slog"

	"github.com/chazu/mountscan/pkg/engine"
	"github.com/chazu/mountscan/pkg/kernel"
	"github.com/chazu/mountscan/pkg/kernel/sdfx"
	"github.com/chazu/mountscan/pkg/mount"
	"github.com/chazu/mountscan/pkg/render"
	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/structure"
	"github.com/chazu/mountscan/pkg/task"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App runs the script -> structure -> search -> render pipeline shared by
// the CLI commands.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	logger *slog.Logger
}

// MeshData is the JSON-serializable mesh format written by `mesh`.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Label    string    `json:"label"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Request selects what Evaluate computes beyond the structure itself.
type Request struct {
	Settings      engine.MountSettings
	Check         []int
	OnlyAvailable bool
	Markers       bool
	Mesh          bool
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Structure string               `json:"structure"`
	Atoms     int                  `json:"atoms"`
	Settings  engine.MountSettings `json:"settings"`
	Available []string             `json:"available"`
	Report    *scan.FinalReport    `json:"report,omitempty"`
	Markers   []render.Marker      `json:"markers,omitempty"`
	Meshes    []MeshData           `json:"meshes"`
	Errors    []EvalErrorData      `json:"errors"`
	Warnings  []EvalErrorData      `json:"warnings"`

	model *structure.Model
}

// NewApp creates a new App with an engine and the sdfx kernel.
func NewApp(logger *slog.Logger, opts ...sdfx.Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(opts...),
		logger: logger,
	}
}

// Evaluate takes structure-script source and returns the search result,
// plus meshes when requested. Problems are reported in Errors rather than
// returned.
func (a *App) Evaluate(source string, req Request) EvalResult {
	result := EvalResult{
		Available: []string{},
		Meshes:    []MeshData{},
		Errors:    []EvalErrorData{},
		Warnings:  []EvalErrorData{},
	}
	fail := func(format string, args ...any) EvalResult {
		msg := fmt.Sprintf(format, args...)
		a.logger.Error("evaluate failed", "err", msg)
		result.Errors = append(result.Errors, EvalErrorData{Message: msg})
		return result
	}

	// Step 1: Evaluate the script into a structure.
	script, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		return fail("%v", err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	m := script.Model
	m.AddCheck(req.Check...)
	result.Structure = m.Name
	result.Atoms = len(m.Atoms)
	result.model = m
	result.Settings = task.Resolve(task.Task{
		Element:    req.Settings.Element,
		BondLength: req.Settings.BondLength,
		Lower:      req.Settings.Lower,
		Upper:      req.Settings.Upper,
	}, script.Mount)

	// Nothing to search in an empty script.
	if len(m.Atoms) == 0 {
		return result
	}

	// Step 2: Validate the structure.
	vr := structure.ValidateAll(m)
	for _, w := range vr.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: fmt.Sprintf("atom %d: %s", w.Atom, w.Message)})
	}
	if len(vr.Errors) > 0 {
		for _, e := range vr.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
		}
		return result
	}

	// Step 3: Search.
	checker, err := mount.New(task.MountOptions(result.Settings, a.logger)...)
	if err != nil {
		return fail("%v", err)
	}
	if result.Available, err = checker.AvailableElements(m.Atoms); err != nil {
		return fail("%v", err)
	}
	var searchOpts []mount.SearchOption
	if req.OnlyAvailable {
		searchOpts = append(searchOpts, mount.OnlyAvailable())
	}
	report, err := checker.SearchModel(m, searchOpts...)
	if err != nil {
		return fail("search failed: %v", err)
	}
	result.Report = report

	if req.Markers {
		if result.Markers, err = render.Markers(report); err != nil {
			return fail("markers failed: %v", err)
		}
	}

	// Step 4: Render the structure and sites into triangle meshes.
	if req.Mesh {
		rd, err := render.New(a.kernel, render.WithLogger(a.logger))
		if err != nil {
			return fail("%v", err)
		}
		meshes, err := rd.Render(m, report)
		if err != nil {
			return fail("render failed: %v", err)
		}
		for i, mesh := range meshes {
			result.Meshes = append(result.Meshes, MeshData{
				Vertices: mesh.Vertices,
				Normals:  mesh.Normals,
				Indices:  mesh.Indices,
				Label:    mesh.Label,
				Color:    colorPalette[i%len(colorPalette)],
			})
		}
	}

	return result
}

// Model returns the evaluated structure, or nil when evaluation failed.
func (r EvalResult) Model() *structure.Model { return r.model }
