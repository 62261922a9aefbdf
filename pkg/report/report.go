// Package report renders analysis results as text and exports them to
// Notion.
package report

import (
	"fmt"
	"strings"

	"query-log-analyzer/pkg/aggregate"
)

var sections = []struct {
	Mode     string
	Grouping string
	Title    string
}{
	{aggregate.ModeParameterized, aggregate.GroupingStatement, "PARAMETERIZED QUERIES BY STATEMENT"},
	{aggregate.ModeParameterized, aggregate.GroupingTemplate, "PARAMETERIZED QUERIES BY TEMPLATE"},
	{aggregate.ModeValued, aggregate.GroupingStatement, "VALUED QUERIES BY STATEMENT"},
	{aggregate.ModeValued, aggregate.GroupingTemplate, "VALUED QUERIES BY TEMPLATE"},
}

// Generate renders the full text report. top limits the groups printed
// per section; zero or negative means all.
func Generate(sourceFile string, analysis aggregate.Analysis, top int) string {
	var sb strings.Builder

	sb.WriteString("=================================================\n")
	sb.WriteString("       Query Performance Report\n")
	sb.WriteString("=================================================\n\n")
	sb.WriteString(fmt.Sprintf("Source: %s\n", sourceFile))
	sb.WriteString(fmt.Sprintf("Records: %d\n\n", analysis.RecordCount))

	for _, section := range sections {
		summaries := analysis.Summaries(section.Mode, section.Grouping)
		sb.WriteString(section.Title + "\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		sb.WriteString(fmt.Sprintf("Groups: %d\n\n", len(summaries)))

		shown := len(summaries)
		if top > 0 && shown > top {
			shown = top
		}

		for i := 0; i < shown; i++ {
			writeSummary(&sb, i+1, summaries[i])
		}
		if len(summaries) > shown {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(summaries)-shown))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("=================================================\n")
	sb.WriteString("              End of Report\n")
	sb.WriteString("=================================================\n")

	return sb.String()
}

func writeSummary(sb *strings.Builder, rank int, sum aggregate.Summary) {
	sb.WriteString(fmt.Sprintf("%d. %s\n", rank, sum.Statement))
	sb.WriteString(fmt.Sprintf("   Total elapsed: %.3fs over %d executions (avg %.3fs)\n",
		sum.TotalElapsedSeconds, sum.Count, sum.AvgElapsedSeconds))
	sb.WriteString(fmt.Sprintf("   Avg CPU: %.1fµs, avg service: %.3fs\n",
		sum.AvgCPUMicroseconds, sum.AvgServiceSeconds))
	sb.WriteString(fmt.Sprintf("   Avg results: %.1f rows, %.0f bytes\n",
		sum.AvgResultCount, sum.AvgResultSizeBytes))
	if sum.RequestTime != "" {
		sb.WriteString(fmt.Sprintf("   First seen: %s\n", sum.RequestTime))
	}
	if sum.Example != "" && sum.Example != sum.Statement {
		sb.WriteString(fmt.Sprintf("   Example: %s\n", sum.Example))
	}
	sb.WriteString("\n")
}
