package aggregate

import (
	"query-log-analyzer/pkg/records"
	"query-log-analyzer/pkg/template"
)

// Processing modes and grouping strategies, as stored and reported.
const (
	ModeParameterized = "param"  // statements as logged, placeholders kept
	ModeValued        = "valued" // placeholders replaced by bound values

	GroupingStatement = "statement"
	GroupingTemplate  = "template"
)

// ModeResult holds both grouping strategies for one processing mode.
type ModeResult struct {
	ByStatement []Summary `json:"byStatement"`
	ByTemplate  []Summary `json:"byTemplate"`
}

// Analysis is the full output of one batch: two processing modes, each
// grouped two ways.
type Analysis struct {
	RecordCount   int        `json:"recordCount"`
	Parameterized ModeResult `json:"parameterized"`
	Valued        ModeResult `json:"valued"`
}

// Analyze runs the whole pipeline over a loaded record set.
func Analyze(recs []records.Record, t *template.Templater) Analysis {
	parameterized := records.Process(recs, false)
	valued := records.Process(recs, true)

	return Analysis{
		RecordCount: len(recs),
		Parameterized: ModeResult{
			ByStatement: GroupByStatement(parameterized),
			ByTemplate:  GroupByTemplate(parameterized, t),
		},
		Valued: ModeResult{
			ByStatement: GroupByStatement(valued),
			ByTemplate:  GroupByTemplate(valued, t),
		},
	}
}

// Summaries returns the group list for a mode/grouping pair, nil for
// unknown names.
func (a Analysis) Summaries(mode, grouping string) []Summary {
	var result ModeResult
	switch mode {
	case ModeParameterized:
		result = a.Parameterized
	case ModeValued:
		result = a.Valued
	default:
		return nil
	}

	switch grouping {
	case GroupingStatement:
		return result.ByStatement
	case GroupingTemplate:
		return result.ByTemplate
	default:
		return nil
	}
}
