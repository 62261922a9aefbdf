package store

import (
	"testing"

	"query-log-analyzer/pkg/aggregate"
	"query-log-analyzer/pkg/records"
	"query-log-analyzer/pkg/template"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAnalysis() aggregate.Analysis {
	recs := []records.Record{
		{Statement: "SELECT * FROM users WHERE id = 1", ElapsedTime: "2s", ResultCount: 5, RequestTime: "2026-08-30T10:00:00Z"},
		{Statement: "SELECT * FROM users WHERE id = 2", ElapsedTime: "1s", ResultCount: 3, RequestTime: "2026-08-30T10:00:01Z"},
	}
	return aggregate.Analyze(recs, template.New())
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)

	runID, err := s.SaveAnalysis("queries.json", testAnalysis())
	if err != nil {
		t.Fatalf("SaveAnalysis() error: %v", err)
	}
	if runID == 0 {
		t.Fatal("expected non-zero run id")
	}

	run, err := s.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run == nil {
		t.Fatal("expected run, got nil")
	}
	if run.SourceFile != "queries.json" {
		t.Errorf("SourceFile = %q, want queries.json", run.SourceFile)
	}
	if run.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", run.RecordCount)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	run, err := s.GetRun(999)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil for missing run, got %+v", run)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SaveAnalysis("a.json", testAnalysis())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.SaveAnalysis("b.json", testAnalysis())
	if err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("unexpected order: %d, %d", runs[0].ID, runs[1].ID)
	}
}

func TestGetSummaries(t *testing.T) {
	s := newTestStore(t)

	analysis := testAnalysis()
	runID, err := s.SaveAnalysis("queries.json", analysis)
	if err != nil {
		t.Fatal(err)
	}

	summaries, err := s.GetSummaries(runID, aggregate.ModeParameterized, aggregate.GroupingTemplate)
	if err != nil {
		t.Fatalf("GetSummaries() error: %v", err)
	}

	want := analysis.Parameterized.ByTemplate
	if len(summaries) != len(want) {
		t.Fatalf("expected %d summaries, got %d", len(want), len(summaries))
	}
	for i := range summaries {
		if summaries[i] != want[i] {
			t.Errorf("summary %d mismatch:\n got:  %+v\n want: %+v", i, summaries[i], want[i])
		}
	}

	// Both statements collapse to one template, stats carry through.
	if len(summaries) != 1 || summaries[0].Count != 2 || summaries[0].TotalElapsedSeconds != 3 {
		t.Errorf("unexpected template summary: %+v", summaries[0])
	}

	empty, err := s.GetSummaries(runID, "bogus", aggregate.GroupingTemplate)
	if err != nil {
		t.Fatalf("GetSummaries() error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no summaries for unknown mode, got %d", len(empty))
	}
}

func TestDeleteRun(t *testing.T) {
	s := newTestStore(t)

	runID, err := s.SaveAnalysis("queries.json", testAnalysis())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRun(runID); err != nil {
		t.Fatalf("DeleteRun() error: %v", err)
	}

	run, err := s.GetRun(runID)
	if err != nil {
		t.Fatal(err)
	}
	if run != nil {
		t.Error("expected run to be gone")
	}

	// Summaries are deleted by the cascade.
	summaries, err := s.GetSummaries(runID, aggregate.ModeParameterized, aggregate.GroupingStatement)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected no summaries after delete, got %d", len(summaries))
	}
}
