package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/mountscan/pkg/engine"
	"github.com/chazu/mountscan/pkg/task"
)

// globalFlags are shared by every command.
type globalFlags struct {
	logLevel string
	logger   *slog.Logger
}

// searchFlags are the mount settings a command may override.
type searchFlags struct {
	element       string
	bondLength    float64
	lower         float64
	upper         float64
	check         []int
	onlyAvailable bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.element, "element", "e", "", "element to mount (default: script setting, then H)")
	fs.Float64VarP(&f.bondLength, "bond-length", "b", 0, "bond length (default: covalent radius of the element)")
	fs.Float64Var(&f.lower, "lower", 0, "lower bond window factor (default 0.6)")
	fs.Float64Var(&f.upper, "upper", 0, "upper bond window factor (default 1.15)")
	fs.IntSliceVar(&f.check, "check", nil, "restrict the scan to these atom indices")
	fs.BoolVar(&f.onlyAvailable, "only-available", false, "drop atoms that cannot bond to the element")
}

func (f *searchFlags) request() Request {
	return Request{
		Settings: engine.MountSettings{
			Element:    f.element,
			BondLength: f.bondLength,
			Lower:      f.lower,
			Upper:      f.upper,
		},
		Check:         f.check,
		OnlyAvailable: f.onlyAvailable,
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "mountscan",
		Short: "Find bonding sites for an extra atom on a structure",
		Long: `mountscan reads a structure script, intersects the bond-length spheres
around its atoms and reports every place a new atom could sit: free
spheres, circles between two atoms and points bonded to three or more.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := task.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			g.logger = newLogger(cmd.ErrOrStderr(), lvl)
			slog.SetDefault(g.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSearchCmd(g),
		newElementsCmd(g),
		newRunCmd(g),
		newMeshCmd(g),
	)
	return root
}

func newLogger(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// readScript reads a script from path, or stdin when path is "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
