package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vincentzz/nodeengin-sub001/calcjson"
	"github.com/vincentzz/nodeengin-sub001/money"
)

func newExportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <scenario>",
		Short: "Print the JSON-contract encoding of a worked example graph's root node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := lookupScenario(args[0])
			if err != nil {
				return err
			}

			registry := calcjson.NewNodeTypeRegistry()
			if err := money.RegisterAll(registry); err != nil {
				return err
			}

			result := calcjson.ToJSON(sc.root, registry)
			text, ok := result.Value()
			if !ok {
				return result.Err()
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	return cmd
}
