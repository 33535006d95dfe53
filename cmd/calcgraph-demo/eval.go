package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vincentzz/nodeengin-sub001"
)

func newEvalCmd(app *AppContext) *cobra.Command {
	var snapshotToken string

	cmd := &cobra.Command{
		Use:   "eval <scenario>",
		Short: "Evaluate one of the worked example graphs (s1-s5) and print its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := lookupScenario(args[0])
			if err != nil {
				return err
			}

			engine, err := calcgraph.NewEngine(sc.root, calcgraph.WithLogger(calcgraph.NewZerologLogger(app.Logger)))
			if err != nil {
				return err
			}

			if snapshotToken == "" {
				snapshotToken = app.NewSnapshotToken()
			}
			snapshot := calcgraph.NewSnapshot(snapshotToken)

			result, err := engine.EvaluateForResult(sc.path, snapshot, sc.requested, sc.adhoc)
			if err != nil {
				return err
			}

			for _, rid := range sc.requested {
				r := result.Results[rid.ResourceKey()]
				if v, ok := r.Value(); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", rid.ResourceKey(), v)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s FAILED: %v\n", rid.ResourceKey(), r.Err())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotToken, "snapshot", "", "snapshot token to evaluate against (random uuid if omitted)")
	return cmd
}
