package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chazu/mountscan/pkg/element"
	"github.com/chazu/mountscan/pkg/mount"
	"github.com/chazu/mountscan/pkg/task"
)

func newElementsCmd(g *globalFlags) *cobra.Command {
	var (
		sf         searchFlags
		all        bool
		neighbours bool
	)
	cmd := &cobra.Command{
		Use:   "elements [script|-]",
		Short: "Report which elements of a structure can bond to the mounted element",
		Long: `elements evaluates a structure script and, for each element present, prints
the ideal bond length to the mounted element, the accepted window and
whether the configured bond length falls inside it. With --all it prints
the covalent radius table instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if all {
				return writeTable(w)
			}
			if len(args) == 0 {
				return fmt.Errorf("a script is required unless --all is given")
			}
			src, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			res := NewApp(g.logger).Evaluate(src, sf.request())
			if err := resultError(res); err != nil {
				return err
			}
			m := res.Model()
			checker, err := mount.New(task.MountOptions(res.Settings, g.logger)...)
			if err != nil {
				return err
			}
			lower, upper := checker.Window()
			fmt.Fprintf(w, "element\tideal\tmin\tmax\tavailable\n")
			for _, sym := range m.Symbols() {
				ideal, err := checker.IdealBondLength(sym)
				if err != nil {
					return err
				}
				ok, err := checker.CanBond(sym)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%t\n", sym, ideal, ideal*lower, ideal*upper, ok)
			}
			if !neighbours {
				return nil
			}
			counts, err := checker.BondedNeighbours(m.Atoms)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\natom\telement\tneighbours\n")
			for i, a := range m.Atoms {
				fmt.Fprintf(w, "%d\t%s\t%d\n", a.Index, a.Symbol, counts[i])
			}
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "print the covalent radius table")
	cmd.Flags().BoolVar(&neighbours, "neighbours", false, "also print bonded neighbour counts per atom")
	return cmd
}

func writeTable(w io.Writer) error {
	fmt.Fprintf(w, "Z\tsymbol\tcovalent radius\n")
	for _, e := range element.All() {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%.2f\n", e.Number, e.Symbol, e.CovalentRadius); err != nil {
			return err
		}
	}
	return nil
}
