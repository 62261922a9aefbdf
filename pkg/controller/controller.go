// Package controller provides the HTTP API over stored analysis runs.
package controller

import (
	"encoding/json"
	"net/http"

	"query-log-analyzer/pkg/store"
	"query-log-analyzer/pkg/template"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
)

// Controller handles HTTP requests for the viewer.
type Controller struct {
	store     *store.Store
	templater *template.Templater
	decoder   *schema.Decoder
}

// New creates a Controller backed by the given store.
func New(st *store.Store, t *template.Templater) *Controller {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Controller{
		store:     st,
		templater: t,
		decoder:   decoder,
	}
}

// Router builds the API routes.
func (c *Controller) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/runs", c.HandleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id:[0-9]+}", c.HandleGetRun).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id:[0-9]+}/summaries", c.HandleGetSummaries).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id:[0-9]+}", c.HandleDeleteRun).Methods(http.MethodDelete)
	r.HandleFunc("/api/analyze", c.HandleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/api/explain", c.HandleExplain).Methods(http.MethodPost)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
