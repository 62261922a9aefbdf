// Package records models recorded query executions and loads them from
// JSON exports.
package records

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"query-log-analyzer/pkg/params"
)

// Record is one recorded query execution. Duration fields are kept in
// their raw form (string with unit suffix, or bare number) and converted
// at aggregation time. Records are immutable once loaded; transformation
// passes return copies.
type Record struct {
	RequestTime    string         `json:"requestTime"`
	Statement      string         `json:"statement"`
	ElapsedTime    any            `json:"elapsedTime,omitempty"`
	CPUTime        any            `json:"cpuTime,omitempty"`
	ServiceTime    any            `json:"serviceTime,omitempty"`
	ResultCount    float64        `json:"resultCount,omitempty"`
	ResultSize     float64        `json:"resultSize,omitempty"`
	State          string         `json:"state,omitempty"`
	StatementType  string         `json:"statementType,omitempty"`
	RemoteAddr     string         `json:"remoteAddr,omitempty"`
	Users          string         `json:"users,omitempty"`
	ErrorCount     int            `json:"errorCount,omitempty"`
	PositionalArgs []any          `json:"positionalArgs,omitempty"`
	NamedArgs      map[string]any `json:"namedArgs,omitempty"`
}

// LoadFile reads a JSON file containing a list of execution records.
// A non-list top level or undecodable file fails the whole load; a
// record that cannot be decoded or is missing its statement is skipped
// with a warning and the rest of the file is processed.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON list of execution records.
func Parse(data []byte) ([]Record, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("input must be a JSON list of objects: %w", err)
	}

	recs := make([]Record, 0, len(raw))
	for i, item := range raw {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil {
			slog.Warn("skipping undecodable record", "index", i, "error", err)
			continue
		}
		if rec.Statement == "" {
			slog.Warn("skipping record missing statement field", "index", i)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

var statementCleaner = strings.NewReplacer("\n", " ", "<ud>", "", "</ud>", "")

// CleanStatement flattens newlines and strips the <ud> redaction markers
// some query logs wrap user data in.
func CleanStatement(statement string) string {
	return statementCleaner.Replace(statement)
}

// Process returns a copy of each record with its statement cleaned and,
// when substitute is true, positional and named placeholders replaced by
// their bound values.
func Process(recs []Record, substitute bool) []Record {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		statement := CleanStatement(rec.Statement)

		if substitute {
			if len(rec.PositionalArgs) > 0 {
				statement = params.SubstitutePositional(statement, rec.PositionalArgs)
			}
			if len(rec.NamedArgs) > 0 {
				statement = params.SubstituteNamed(statement, rec.NamedArgs)
			}
		}

		processed := rec
		processed.Statement = statement
		out = append(out, processed)
	}
	return out
}
