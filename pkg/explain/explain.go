// Package explain runs PostgreSQL EXPLAIN on valued statements and
// renders the resulting plan.
package explain

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"
)

// Request describes one statement to explain. The statement must be
// executable, i.e. placeholders already substituted.
type Request struct {
	Query            string `json:"query"`
	ConnectionString string `json:"connectionString"`
}

// Response carries the parsed plan or an error message. Failures are
// reported here rather than raised so one bad statement never aborts a
// batch.
type Response struct {
	QueryPlan []map[string]any `json:"queryPlan,omitempty"`
	PlanText  string           `json:"planText,omitempty"`
	Error     string           `json:"error,omitempty"`
	Query     string           `json:"query"`
}

// Explain runs EXPLAIN (ANALYZE, FORMAT JSON) on the given statement.
// Data-modifying statements are explained without ANALYZE so they are
// not executed.
func Explain(req Request) Response {
	resp := Response{Query: req.Query}

	if req.ConnectionString == "" {
		resp.Error = "no connection string provided"
		return resp
	}

	db, err := sql.Open("postgres", req.ConnectionString)
	if err != nil {
		resp.Error = fmt.Sprintf("Error connecting to database: %v", err)
		return resp
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		resp.Error = fmt.Sprintf("Error connecting to database: %v", err)
		return resp
	}

	queryUpper := strings.ToUpper(strings.TrimSpace(req.Query))
	useAnalyze := !strings.Contains(queryUpper, "INSERT INTO") &&
		!strings.Contains(queryUpper, "UPDATE ") &&
		!strings.Contains(queryUpper, "DELETE FROM")

	var explainQuery string
	if useAnalyze {
		explainQuery = fmt.Sprintf("EXPLAIN (ANALYZE, COSTS, VERBOSE, FORMAT JSON) %s", req.Query)
	} else {
		explainQuery = fmt.Sprintf("EXPLAIN (COSTS, VERBOSE, FORMAT JSON) %s", req.Query)
	}
	slog.Debug("EXPLAIN query", "query", explainQuery)

	rows, err := db.Query(explainQuery)
	if err != nil {
		resp.Error = fmt.Sprintf("Error running EXPLAIN: %v", err)
		return resp
	}
	defer rows.Close()

	var planJSON string
	for rows.Next() {
		var plan string
		if err := rows.Scan(&plan); err != nil {
			resp.Error = fmt.Sprintf("Error scanning result: %v", err)
			return resp
		}
		planJSON += plan
	}
	if err := rows.Err(); err != nil {
		resp.Error = fmt.Sprintf("Error iterating results: %v", err)
		return resp
	}

	var plan []map[string]any
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		resp.Error = fmt.Sprintf("Error parsing EXPLAIN JSON: %v", err)
		return resp
	}
	resp.QueryPlan = plan

	var parsed []Plan
	if err := json.Unmarshal([]byte(planJSON), &parsed); err == nil {
		resp.PlanText = FormatPlanText(parsed)
	}

	return resp
}

// PlanNode mirrors the fields of PostgreSQL's JSON plan format used for
// text rendering.
type PlanNode struct {
	NodeType          string     `json:"Node Type"`
	RelationName      string     `json:"Relation Name,omitempty"`
	Alias             string     `json:"Alias,omitempty"`
	StartupCost       float64    `json:"Startup Cost,omitempty"`
	TotalCost         float64    `json:"Total Cost,omitempty"`
	PlanRows          int        `json:"Plan Rows,omitempty"`
	PlanWidth         int        `json:"Plan Width,omitempty"`
	ActualStartupTime float64    `json:"Actual Startup Time,omitempty"`
	ActualTotalTime   float64    `json:"Actual Total Time,omitempty"`
	ActualRows        int        `json:"Actual Rows,omitempty"`
	ActualLoops       int        `json:"Actual Loops,omitempty"`
	Filter            string     `json:"Filter,omitempty"`
	IndexCond         string     `json:"Index Cond,omitempty"`
	HashCond          string     `json:"Hash Cond,omitempty"`
	Plans             []PlanNode `json:"Plans,omitempty"`
}

// Plan is one top-level entry of the EXPLAIN JSON output.
type Plan struct {
	Plan          PlanNode `json:"Plan"`
	PlanningTime  float64  `json:"Planning Time,omitempty"`
	ExecutionTime float64  `json:"Execution Time,omitempty"`
}

// FormatPlanText renders plans as an indented tree.
func FormatPlanText(plans []Plan) string {
	var output []string

	var formatNode func(node PlanNode, prefix string, isLast bool, root bool)
	formatNode = func(node PlanNode, prefix string, isLast bool, root bool) {
		line := prefix
		if !root {
			if isLast {
				line += "└─ "
			} else {
				line += "├─ "
			}
		}

		line += node.NodeType
		if node.RelationName != "" {
			line += fmt.Sprintf(" on %s", node.RelationName)
			if node.Alias != "" && node.Alias != node.RelationName {
				line += fmt.Sprintf(" %s", node.Alias)
			}
		}
		line += fmt.Sprintf("  (cost=%.2f..%.2f rows=%d width=%d)",
			node.StartupCost, node.TotalCost, node.PlanRows, node.PlanWidth)
		if node.ActualStartupTime > 0 || node.ActualTotalTime > 0 {
			loops := node.ActualLoops
			if loops == 0 {
				loops = 1
			}
			line += fmt.Sprintf(" (actual time=%.3f..%.3f rows=%d loops=%d)",
				node.ActualStartupTime, node.ActualTotalTime, node.ActualRows, loops)
		}
		output = append(output, line)

		childPrefix := prefix
		if !root {
			if isLast {
				childPrefix += "   "
			} else {
				childPrefix += "│  "
			}
		}

		if node.Filter != "" {
			output = append(output, childPrefix+fmt.Sprintf("Filter: %s", node.Filter))
		}
		if node.IndexCond != "" {
			output = append(output, childPrefix+fmt.Sprintf("Index Cond: %s", node.IndexCond))
		}
		if node.HashCond != "" {
			output = append(output, childPrefix+fmt.Sprintf("Hash Cond: %s", node.HashCond))
		}

		for i, child := range node.Plans {
			formatNode(child, childPrefix, i == len(node.Plans)-1, false)
		}
	}

	for _, plan := range plans {
		formatNode(plan.Plan, "", true, true)
		if plan.PlanningTime > 0 {
			output = append(output, fmt.Sprintf("Planning Time: %.3f ms", plan.PlanningTime))
		}
		if plan.ExecutionTime > 0 {
			output = append(output, fmt.Sprintf("Execution Time: %.3f ms", plan.ExecutionTime))
		}
	}

	return strings.Join(output, "\n")
}
