// Package aggregate groups execution records by a canonical statement
// key and computes per-group performance summaries.
package aggregate

import (
	"sort"

	"query-log-analyzer/pkg/records"
	"query-log-analyzer/pkg/template"
	"query-log-analyzer/pkg/units"
)

// Summary is the per-group output handed to reporting consumers.
type Summary struct {
	RequestTime         string  `json:"requestTime"`
	Statement           string  `json:"statement"`
	AvgElapsedSeconds   float64 `json:"avgElapsedSeconds"`
	TotalElapsedSeconds float64 `json:"totalElapsedSeconds"`
	AvgCPUMicroseconds  float64 `json:"avgCpuMicroseconds"`
	AvgServiceSeconds   float64 `json:"avgServiceSeconds"`
	AvgResultCount      float64 `json:"avgResultCount"`
	AvgResultSizeBytes  float64 `json:"avgResultSizeBytes"`
	Count               int     `json:"count"`
	Example             string  `json:"example,omitempty"`
}

type group struct {
	requestTime string
	example     string
	elapsed     []float64
	cpu         []float64
	service     []float64
	resultCount []float64
	resultSize  []float64
	count       int
}

// Accumulator collects per-group metric series. One accumulator is
// constructed per run and per grouping strategy; there is no shared
// state between runs. Accumulation is not safe for concurrent writers.
type Accumulator struct {
	order  []string
	groups map[string]*group
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{groups: make(map[string]*group)}
}

// Add records one execution under the given key. The example statement
// is kept only for the first record of a group; pass "" for groupings
// where the key itself is the statement.
func (a *Accumulator) Add(key, example string, rec records.Record) {
	g, ok := a.groups[key]
	if !ok {
		g = &group{
			requestTime: rec.RequestTime,
			example:     example,
		}
		a.groups[key] = g
		a.order = append(a.order, key)
	}

	g.elapsed = append(g.elapsed, units.ToSeconds(rec.ElapsedTime))
	g.cpu = append(g.cpu, units.ToMicroseconds(rec.CPUTime))
	g.service = append(g.service, units.ToSeconds(rec.ServiceTime))
	g.resultCount = append(g.resultCount, rec.ResultCount)
	g.resultSize = append(g.resultSize, rec.ResultSize)
	g.count++
}

// Summaries computes per-group means and totals, sorted by descending
// total elapsed time. Ties keep first-encounter order.
func (a *Accumulator) Summaries() []Summary {
	summaries := make([]Summary, 0, len(a.order))
	for _, key := range a.order {
		g := a.groups[key]
		summaries = append(summaries, Summary{
			RequestTime:         g.requestTime,
			Statement:           key,
			AvgElapsedSeconds:   mean(g.elapsed),
			TotalElapsedSeconds: sum(g.elapsed),
			AvgCPUMicroseconds:  mean(g.cpu),
			AvgServiceSeconds:   mean(g.service),
			AvgResultCount:      mean(g.resultCount),
			AvgResultSizeBytes:  mean(g.resultSize),
			Count:               g.count,
			Example:             g.example,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalElapsedSeconds > summaries[j].TotalElapsedSeconds
	})
	return summaries
}

// GroupByStatement groups records by their literal statement text.
func GroupByStatement(recs []records.Record) []Summary {
	acc := NewAccumulator()
	for _, rec := range recs {
		acc.Add(rec.Statement, "", rec)
	}
	return acc.Summaries()
}

// GroupByTemplate groups records by their normalized template, keeping
// the first raw statement of each group as a representative example.
func GroupByTemplate(recs []records.Record, t *template.Templater) []Summary {
	acc := NewAccumulator()
	for _, rec := range recs {
		acc.Add(t.Template(rec.Statement), rec.Statement, rec)
	}
	return acc.Summaries()
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}
