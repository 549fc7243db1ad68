package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var graphFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the automaton of a rule in DOT",
		Example: `  decisive graph grammar.g expr -o expr.dot
  decisive graph grammar.g expr | dot -Tsvg > expr.svg`,
		Args: cobra.ExactArgs(2),
		RunE: runGraph,
	}
	graphFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(cmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	grmPath, rule := args[0], args[1]

	s, err := openSession(grmPath, cfg.AnalysisOptions())
	if err != nil {
		return err
	}
	// States of the rule's diagnostics are highlighted, so the graph is rendered after the analysis.
	_, err = s.EnsureAnalyzed(cmd.Context())
	if err != nil {
		return err
	}
	g, err := s.RuleGraph(rule)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *graphFlags.output != "" {
		f, err := os.OpenFile(*graphFlags.output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("Cannot create the output file %s: %w", *graphFlags.output, err)
		}
		defer f.Close()
		w = f
	}
	_, err = io.WriteString(w, g)
	return err
}
