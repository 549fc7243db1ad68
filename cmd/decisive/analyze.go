package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nihei9/decisive/session"
	"github.com/nihei9/decisive/spec"
	"github.com/spf13/cobra"
)

var analyzeFlags = struct {
	output    *string
	format    *string
	lookahead *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the decisions of a grammar",
		Example: `  decisive analyze grammar.g
  decisive analyze grammar.g -f json -o report.json
  cat grammar.g | decisive analyze -k 2`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
	analyzeFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	analyzeFlags.format = cmd.Flags().StringP("format", "f", "", "output format: text, json, or msgpack (default from the configuration)")
	analyzeFlags.lookahead = cmd.Flags().IntP("lookahead", "k", 0, "lookahead depth (default from the configuration)")
	rootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) (retErr error) {
	var grmPath string
	if len(args) > 0 {
		grmPath = args[0]
	}
	defer func() {
		nameStdin(retErr, grmPath)
	}()

	format := cfg.Output.Format
	if *analyzeFlags.format != "" {
		format = *analyzeFlags.format
	}
	switch format {
	case "text", string(spec.ReportFormatJSON), string(spec.ReportFormatMsgPack):
	default:
		return fmt.Errorf("unknown output format: %v", format)
	}
	opts := cfg.AnalysisOptions()
	if *analyzeFlags.lookahead != 0 {
		if *analyzeFlags.lookahead < 0 {
			return fmt.Errorf("lookahead depth must be 1 or more: %v", *analyzeFlags.lookahead)
		}
		opts.LookaheadDepth = *analyzeFlags.lookahead
	}

	s, err := openSession(grmPath, opts)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *analyzeFlags.output != "" {
		f, err := os.OpenFile(*analyzeFlags.output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("Cannot create the output file %s: %w", *analyzeFlags.output, err)
		}
		defer f.Close()
		w = f
	}

	<-s.AnalyzeAsync(cmd.Context())
	p := &reportPresenter{
		w:      w,
		format: format,
	}
	if s.Inbox().Drain(p) == 0 {
		return fmt.Errorf("the analysis finished without a result")
	}
	return p.err
}

// reportPresenter writes a result in an output format.
type reportPresenter struct {
	w      io.Writer
	format string
	err    error
}

var _ session.Presenter = &reportPresenter{}

func (p *reportPresenter) AnalysisDidComplete(res *session.Result) {
	report := res.Report()
	if p.format == "text" {
		p.err = writeText(p.w, report)
		return
	}
	p.err = spec.WriteReport(p.w, report, spec.ReportFormat(p.format))
}

func (p *reportPresenter) AnalysisDidFail(err error) {
	p.err = err
}
