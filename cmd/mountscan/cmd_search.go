package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/mountscan/pkg/mount"
	"github.com/chazu/mountscan/pkg/render"
	"github.com/chazu/mountscan/pkg/scan"
	"github.com/chazu/mountscan/pkg/task"
)

func newSearchCmd(g *globalFlags) *cobra.Command {
	var (
		sf      searchFlags
		format  string
		output  string
		markers bool
	)
	cmd := &cobra.Command{
		Use:   "search <script|->",
		Short: "Search a structure script for bonding sites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			req := sf.request()
			req.Markers = markers
			res := NewApp(g.logger).Evaluate(src, req)
			if err := resultError(res); err != nil {
				return err
			}
			for _, w := range res.Warnings {
				g.logger.Warn("structure warning", "msg", w.Message)
			}

			if format == "text" {
				if output != "" {
					return fmt.Errorf("--output needs --format json or yaml")
				}
				return writeSummary(cmd.OutOrStdout(), res)
			}
			doc := searchDocument(res)
			if output != "" {
				return task.WriteOutput(output, format, doc)
			}
			b, err := task.Encode(doc, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&markers, "markers", false, "include marker positions and a marked structure")
	return cmd
}

// resultError joins the errors of a result into one error.
func resultError(res EvalResult) error {
	if len(res.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(res.Errors))
	for i, e := range res.Errors {
		if e.Line > 0 {
			errs[i] = fmt.Errorf("line %d: %s", e.Line, e.Message)
		} else {
			errs[i] = errors.New(e.Message)
		}
	}
	return errors.Join(errs...)
}

func searchDocument(res EvalResult) task.Output {
	out := task.Output{
		Task:      "search",
		Structure: res.Structure,
		Atoms:     res.Atoms,
		Settings:  res.Settings,
		Report:    res.Report,
		Markers:   res.Markers,
	}
	if res.Report != nil {
		out.Summary = res.Report.String()
	}
	if len(res.Markers) > 0 && res.Model() != nil {
		symbol := res.Settings.Element
		if symbol == "" {
			symbol = mount.DefaultElement
		}
		out.Marked = render.WithMarkers(res.Model(), res.Markers, symbol)
	}
	return out
}

// writeSummary prints the dry-run view: site counts plus every multi point.
func writeSummary(w io.Writer, res EvalResult) error {
	var b strings.Builder
	name := res.Structure
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "structure: %s (%d atoms)\n", name, res.Atoms)
	if res.Report == nil {
		b.WriteString("nothing to search\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	element := res.Settings.Element
	if element == "" {
		element = mount.DefaultElement
	}
	fmt.Fprintf(&b, "element: %s  bond length: %.4f\n", element, res.Report.Radius)
	fmt.Fprintf(&b, "available elements: %s\n", strings.Join(res.Available, " "))
	fmt.Fprintf(&b, "%s\n", res.Report)
	if len(res.Report.MultiPoints) > 0 {
		b.WriteString("multi points:\n")
		for _, p := range res.Report.MultiPoints {
			writePoint(&b, p)
		}
	}
	for _, m := range res.Markers {
		fmt.Fprintf(&b, "marker %-11s %9.4f %9.4f %9.4f  atoms %v\n",
			m.Kind, m.Position.X, m.Position.Y, m.Position.Z, m.AtomIDs)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writePoint(b *strings.Builder, p scan.CoordinationPoint) {
	c := p.Coord()
	fmt.Fprintf(b, "  %9.4f %9.4f %9.4f  cn=%d atoms %v\n", c.X, c.Y, c.Z, p.CN(), p.AtomIDs())
}
