package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"query-log-analyzer/pkg/aggregate"
	"query-log-analyzer/pkg/store"
	"query-log-analyzer/pkg/template"
)

const recordsJSON = `[
	{"statement": "SELECT * FROM users WHERE id = 1", "elapsedTime": "2s", "resultCount": 5},
	{"statement": "SELECT * FROM users WHERE id = 2", "elapsedTime": "1s", "resultCount": 3},
	{"statement": "SELECT * FROM orders WHERE total > 100", "elapsedTime": "4s", "resultCount": 10}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	server := httptest.NewServer(New(st, template.New()).Router())
	t.Cleanup(server.Close)
	return server
}

func analyzeRecords(t *testing.T, server *httptest.Server, body string) int64 {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/analyze?source=test.json", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("analyze request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analyze returned %d", resp.StatusCode)
	}

	var result struct {
		ID          int64 `json:"id"`
		RecordCount int   `json:"recordCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode analyze response: %v", err)
	}
	if result.RecordCount != 3 {
		t.Fatalf("recordCount = %d, want 3", result.RecordCount)
	}
	return result.ID
}

func TestAnalyzeAndGetRun(t *testing.T) {
	server := newTestServer(t)
	id := analyzeRecords(t, server, recordsJSON)

	resp, err := http.Get(server.URL + "/api/runs/1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get run returned %d", resp.StatusCode)
	}

	var run store.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatal(err)
	}
	if run.ID != id || run.SourceFile != "test.json" || run.RecordCount != 3 {
		t.Errorf("unexpected run: %+v", run)
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	server := newTestServer(t)

	for _, body := range []string{`{"statement": "x"}`, `[]`, `not json`} {
		resp, err := http.Post(server.URL+"/api/analyze", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestListRuns(t *testing.T) {
	server := newTestServer(t)
	analyzeRecords(t, server, recordsJSON)
	analyzeRecords(t, server, recordsJSON)

	resp, err := http.Get(server.URL + "/api/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var runs []store.Run
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestGetRunNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/runs/42")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetSummaries(t *testing.T) {
	server := newTestServer(t)
	analyzeRecords(t, server, recordsJSON)

	// Default is parameterized mode grouped by template.
	resp, err := http.Get(server.URL + "/api/runs/1/summaries")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var summaries []aggregate.Summary
	if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 template groups, got %d", len(summaries))
	}
	if summaries[0].Statement != "SELECT * FROM orders WHERE total > ?" {
		t.Errorf("unexpected top group: %q", summaries[0].Statement)
	}
	if summaries[1].Count != 2 {
		t.Errorf("expected merged user lookups, got %+v", summaries[1])
	}

	// Explicit mode and grouping with a limit.
	resp2, err := http.Get(server.URL + "/api/runs/1/summaries?mode=valued&grouping=statement&limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()

	var limited []aggregate.Summary
	if err := json.NewDecoder(resp2.Body).Decode(&limited); err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 summary with limit=1, got %d", len(limited))
	}
	if limited[0].Statement != "SELECT * FROM orders WHERE total > 100" {
		t.Errorf("unexpected top statement: %q", limited[0].Statement)
	}
}

func TestDeleteRun(t *testing.T) {
	server := newTestServer(t)
	analyzeRecords(t, server, recordsJSON)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/runs/1", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete returned %d", resp.StatusCode)
	}

	check, err := http.Get(server.URL + "/api/runs/1")
	if err != nil {
		t.Fatal(err)
	}
	check.Body.Close()
	if check.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", check.StatusCode)
	}
}

func TestExplainEndpointWithoutConnection(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/explain", "application/json",
		strings.NewReader(`{"query": "SELECT 1"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("explain returned %d", resp.StatusCode)
	}

	var result struct {
		Error string `json:"error"`
		Query string `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Error == "" || result.Query != "SELECT 1" {
		t.Errorf("unexpected explain response: %+v", result)
	}
}
