package controller

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"query-log-analyzer/pkg/aggregate"
	"query-log-analyzer/pkg/explain"
	"query-log-analyzer/pkg/records"

	"github.com/gorilla/mux"
)

// HandleListRuns lists stored analysis runs, newest first.
func (c *Controller) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := c.store.ListRuns()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// HandleGetRun retrieves a single run.
func (c *Controller) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := c.store.GetRun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, run)
}

type summariesQuery struct {
	Mode     string `schema:"mode"`
	Grouping string `schema:"grouping"`
	Limit    int    `schema:"limit"`
}

// HandleGetSummaries returns one summary list of a run in stored
// (descending total elapsed) order.
func (c *Controller) HandleGetSummaries(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	query := summariesQuery{
		Mode:     aggregate.ModeParameterized,
		Grouping: aggregate.GroupingTemplate,
	}
	if err := c.decoder.Decode(&query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := c.store.GetRun(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	summaries, err := c.store.GetSummaries(id, query.Mode, query.Grouping)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if query.Limit > 0 && len(summaries) > query.Limit {
		summaries = summaries[:query.Limit]
	}
	writeJSON(w, summaries)
}

// HandleDeleteRun deletes a run and its summaries.
func (c *Controller) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	if err := c.store.DeleteRun(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"message": "Run deleted"})
}

// HandleAnalyze accepts a JSON list of execution records, runs the full
// analysis pipeline, persists the result, and returns the run ID.
func (c *Controller) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recs, err := records.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(recs) == 0 {
		http.Error(w, "No processable records in input", http.StatusBadRequest)
		return
	}

	analysis := aggregate.Analyze(recs, c.templater)
	id, err := c.store.SaveAnalysis(source, analysis)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("analysis saved", "run_id", id, "source", source, "records", analysis.RecordCount)
	writeJSON(w, map[string]any{
		"id":          id,
		"recordCount": analysis.RecordCount,
	})
}

// HandleExplain runs EXPLAIN for a valued statement.
func (c *Controller) HandleExplain(w http.ResponseWriter, r *http.Request) {
	var req explain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, explain.Explain(req))
}
