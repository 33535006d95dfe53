package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// AppContext bundles the dependencies every subcommand needs, mirroring
// the shared-context idiom used for the application's own command tree.
type AppContext struct {
	Logger zerolog.Logger

	// NewSnapshotToken generates a fresh snapshot token when the caller
	// omits --snapshot. Pluggable the way the teacher's own test suite
	// swaps out time/randomness sources, so a test can drive newEvalCmd
	// with a deterministic token instead of a random uuid.
	NewSnapshotToken func() string
}

func newRootCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calcgraph-demo",
		Short: "Drive the hierarchical dependency-graph calculation engine",
	}

	cmd.AddCommand(newEvalCmd(app))
	cmd.AddCommand(newExportCmd(app))
	return cmd
}
