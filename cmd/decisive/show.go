package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/nihei9/decisive/spec"
	"github.com/spf13/cobra"
)

var showFlags = struct {
	format *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a report in a readable format",
		Example: `  decisive show report.json
  decisive show report.msgpack`,
		Args: cobra.ExactArgs(1),
		RunE: runShow,
	}
	showFlags.format = cmd.Flags().StringP("format", "f", "", "report format: json or msgpack (default from the file extension)")
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0], *showFlags.format)
	if err != nil {
		return err
	}

	return writeReport(os.Stdout, report)
}

func readReport(path string, format string) (*spec.Report, error) {
	if format == "" {
		format = string(spec.ReportFormatJSON)
		if filepath.Ext(path) == ".msgpack" {
			format = string(spec.ReportFormatMsgPack)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the report %s: %w", path, err)
	}
	defer f.Close()

	return spec.ReadReport(f, spec.ReportFormat(format))
}

const reportTemplate = `# {{ .Name }}

{{ .Kind }} grammar, lookahead depth {{ .LookaheadDepth }}

# Diagnostics
{{ range $i, $d := .Diagnostics }}
## {{ $i }}: {{ $d.Kind }} at line {{ line $d.Line }}

{{ $d.Message }}

{{ $d.Automaton }} decision {{ $d.Decision }}
alternatives: {{ ints $d.Alternatives }}
{{- if $d.DisabledAlternatives }}
disabled: {{ ints $d.DisabledAlternatives }}
{{- end }}
{{- if $d.UnreachableAlternatives }}
unreachable: {{ ints $d.UnreachableAlternatives }}
{{- end }}
states: {{ ints $d.States }}
rules: {{ join $d.Rules }}
{{ range $d.Paths -}}
{{ printPath . }}
{{ end -}}
{{ end }}
# Rules

{{ range .Rules -}}
{{ printRule . }}
{{ end }}`

func writeReport(w io.Writer, report *spec.Report) error {
	fns := template.FuncMap{
		"line": func(l int) int {
			return l + 1
		},
		"ints": joinInts,
		"join": func(ss []string) string {
			return strings.Join(ss, ", ")
		},
		"printPath": func(p *spec.Path) string {
			var b strings.Builder
			fmt.Fprintf(&b, "path of alternative %v: %v", p.Alternative, joinInts(p.States))
			if p.Disabled {
				b.WriteString(" (disabled)")
			}
			return b.String()
		},
		"printRule": func(r *spec.Rule) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v (lines %v-%v)", r.Name, r.Start+1, r.End+1)
			if len(r.Diagnostics) > 0 {
				fmt.Fprintf(&b, ": diagnostics %v", joinInts(r.Diagnostics))
			}
			return b.String()
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, report)
}
