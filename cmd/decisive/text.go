package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nihei9/decisive/spec"
)

var (
	warningLabel = color.New(color.FgYellow, color.Bold)
	noteLabel    = color.New(color.FgCyan)
	summaryLabel = color.New(color.Bold)
)

// writeText prints diagnostics one per decision in the form of compiler warnings.
func writeText(w io.Writer, report *spec.Report) error {
	source := report.FilePath
	if source == "" {
		source = "stdin"
	}
	for _, d := range report.Diagnostics {
		_, err := fmt.Fprintf(w, "%v:%v: %v %v\n", source, d.Line+1, warningLabel.Sprint("warning:"), d.Message)
		if err != nil {
			return err
		}
		var notes []string
		notes = append(notes, fmt.Sprintf("%v decision %v", d.Automaton, d.Decision))
		if len(d.Alternatives) > 0 {
			notes = append(notes, fmt.Sprintf("alternatives: %v", joinInts(d.Alternatives)))
		}
		if len(d.DisabledAlternatives) > 0 {
			notes = append(notes, fmt.Sprintf("disabled: %v", joinInts(d.DisabledAlternatives)))
		}
		if len(d.Rules) > 0 {
			notes = append(notes, fmt.Sprintf("rules: %v", strings.Join(d.Rules, ", ")))
		}
		for _, n := range notes {
			_, err := fmt.Fprintf(w, "    %v %v\n", noteLabel.Sprint("note:"), n)
			if err != nil {
				return err
			}
		}
	}
	_, err := summaryLabel.Fprintf(w, "%v: %v diagnostics (k=%v)\n", report.Name, len(report.Diagnostics), report.LookaheadDepth)
	return err
}

func joinInts(ns []int) string {
	var b strings.Builder
	for i, n := range ns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", n)
	}
	return b.String()
}
