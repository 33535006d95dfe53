// Command calcgraph-demo drives the calculation engine against the
// worked money examples, for manual exploration and as an end-to-end
// smoke test of the evaluation engine and the JSON-contract package
// together.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	app := &AppContext{Logger: logger, NewSnapshotToken: uuid.NewString}
	rootCmd := newRootCmd(app)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
