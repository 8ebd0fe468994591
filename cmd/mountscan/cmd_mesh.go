package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/mountscan/pkg/kernel/sdfx"
)

func newMeshCmd(g *globalFlags) *cobra.Command {
	var (
		sf     searchFlags
		cells  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "mesh <script|->",
		Short: "Render a structure and its bonding sites as triangle meshes (JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			req := sf.request()
			req.Mesh = true
			res := NewApp(g.logger, sdfx.WithCells(cells)).Evaluate(src, req)
			if err := resultError(res); err != nil {
				return err
			}

			b, err := json.Marshal(res.Meshes)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return err
			}
			return os.WriteFile(output, b, 0o644)
		},
	}
	sf.register(cmd)
	cmd.Flags().IntVar(&cells, "cells", sdfx.DefaultMeshCells, "marching cubes resolution")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the meshes to this file instead of stdout")
	return cmd
}
