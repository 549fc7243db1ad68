package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "List the rules of a grammar with the number of their diagnostics",
		Example: `  decisive rules grammar.g`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runRules,
	}
	rootCmd.AddCommand(cmd)
}

func runRules(cmd *cobra.Command, args []string) (retErr error) {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}
	defer func() {
		nameStdin(retErr, grmPath)
	}()

	s, err := openSession(grmPath, cfg.AnalysisOptions())
	if err != nil {
		return err
	}
	res, err := s.EnsureAnalyzed(cmd.Context())
	if err != nil {
		return err
	}

	for _, r := range res.Rules {
		count := len(res.RuleDiagnostics[r.Name])
		label := fmt.Sprintf("%v", count)
		if count > 0 {
			label = warningLabel.Sprint(count)
		}
		fmt.Fprintf(os.Stdout, "%v\t%v-%v\t%v\n", r.Name, r.Start+1, r.End+1, label)
	}
	return nil
}
