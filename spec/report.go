package spec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

type ReportFormat string

const (
	ReportFormatJSON    = ReportFormat("json")
	ReportFormatMsgPack = ReportFormat("msgpack")
)

const reportSchemaVersion = 1

type Path struct {
	Alternative int   `json:"alternative" msgpack:"alternative"`
	States      []int `json:"states" msgpack:"states"`
	Disabled    bool  `json:"disabled" msgpack:"disabled"`
}

type Diagnostic struct {
	Kind                    string   `json:"kind" msgpack:"kind"`
	Automaton               string   `json:"automaton" msgpack:"automaton"`
	Decision                int      `json:"decision" msgpack:"decision"`
	Line                    int      `json:"line" msgpack:"line"`
	Message                 string   `json:"message" msgpack:"message"`
	Alternatives            []int    `json:"alternatives" msgpack:"alternatives"`
	DisabledAlternatives    []int    `json:"disabled_alternatives,omitempty" msgpack:"disabled_alternatives,omitempty"`
	UnreachableAlternatives []int    `json:"unreachable_alternatives,omitempty" msgpack:"unreachable_alternatives,omitempty"`
	States                  []int    `json:"states" msgpack:"states"`
	Rules                   []string `json:"rules" msgpack:"rules"`
	Sample                  string   `json:"sample,omitempty" msgpack:"sample,omitempty"`
	Paths                   []*Path  `json:"paths,omitempty" msgpack:"paths,omitempty"`
}

type Rule struct {
	Name        string `json:"name" msgpack:"name"`
	Start       int    `json:"start" msgpack:"start"`
	End         int    `json:"end" msgpack:"end"`
	Diagnostics []int  `json:"diagnostics" msgpack:"diagnostics"`
}

// Report is a persisted form of one analysis pass. Diagnostics of a rule refer to the indexes of
// Report.Diagnostics.
type Report struct {
	Schema         int           `json:"schema" msgpack:"schema"`
	Name           string        `json:"name" msgpack:"name"`
	Kind           string        `json:"kind" msgpack:"kind"`
	FilePath       string        `json:"file_path" msgpack:"file_path"`
	LookaheadDepth int           `json:"lookahead_depth" msgpack:"lookahead_depth"`
	Diagnostics    []*Diagnostic `json:"diagnostics" msgpack:"diagnostics"`
	Rules          []*Rule       `json:"rules" msgpack:"rules"`
}

func WriteReport(w io.Writer, report *Report, format ReportFormat) error {
	report.Schema = reportSchemaVersion
	switch format {
	case ReportFormatJSON, "":
		b, err := json.Marshal(report)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%v\n", string(b))
		return err
	case ReportFormatMsgPack:
		return msgpack.NewEncoder(w).Encode(report)
	default:
		return fmt.Errorf("unknown report format: %v", format)
	}
}

func ReadReport(r io.Reader, format ReportFormat) (*Report, error) {
	report := &Report{}
	switch format {
	case ReportFormatJSON, "":
		d, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(d, report)
		if err != nil {
			return nil, err
		}
	case ReportFormatMsgPack:
		err := msgpack.NewDecoder(r).Decode(report)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown report format: %v", format)
	}
	if report.Schema != reportSchemaVersion {
		return nil, fmt.Errorf("unsupported report schema; want: %v, got: %v", reportSchemaVersion, report.Schema)
	}
	return report, nil
}
