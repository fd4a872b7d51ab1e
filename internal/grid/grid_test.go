package grid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casedeck/internal/casedev"
)

func testColumns() []casedev.ExtractionColumn {
	return []casedev.ExtractionColumn{
		{ID: "c1", Name: "Effective Date", Prompt: "When does it take effect?", DataType: casedev.DataTypeDate, Order: 0},
		{ID: "c2", Name: "Governing Law", Prompt: "Which law governs?", DataType: casedev.DataTypeText, Order: 1},
	}
}

func testDocs() []casedev.DocumentRef {
	return []casedev.DocumentRef{
		{ID: "d1", VaultID: "v1", Name: "msa.pdf"},
		{ID: "d2", VaultID: "v1", Name: "nda.pdf"},
		{ID: "d3", VaultID: "v1", Name: "sow.pdf"},
	}
}

func loadedGrid(t *testing.T) *Grid {
	t.Helper()
	g := New(nil, "an1")
	g.columns = testColumns()
	g.documents = testDocs()
	return g
}

func cell(v any) casedev.CellValue {
	return casedev.CellValue{Value: v}
}

// TestProgress tests the rounded completed-share over a 3x2 grid.
func TestProgress(t *testing.T) {
	g := loadedGrid(t)
	if got := g.Progress(); got != 0 {
		t.Errorf("Expected 0%% on empty grid, got %d", got)
	}

	g.Merge(&casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{"c1": cell("2024-01-01")}},
	}})
	if got := g.Progress(); got != 17 {
		t.Errorf("Expected 17%% for 1/6 cells, got %d", got)
	}

	g.Merge(&casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{"c2": cell("Delaware")}},
		{DocumentID: "d2", Data: map[string]casedev.CellValue{"c1": cell("2024-02-01")}},
	}})
	if got := g.Progress(); got != 50 {
		t.Errorf("Expected 50%% for 3/6 cells, got %d", got)
	}
}

// TestProgressEmptyGrid tests that a grid with no columns reports zero
// instead of dividing by zero.
func TestProgressEmptyGrid(t *testing.T) {
	g := New(nil, "an1")
	if got := g.Progress(); got != 0 {
		t.Errorf("Expected 0%%, got %d", got)
	}
}

// TestMergeIdempotent tests that re-applying a snapshot changes nothing.
func TestMergeIdempotent(t *testing.T) {
	g := loadedGrid(t)
	snap := &casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{"c1": cell("2024-01-01"), "c2": cell("Delaware")}},
	}}

	g.Merge(snap)
	first := g.Progress()
	g.Merge(snap)
	if got := g.Progress(); got != first {
		t.Errorf("Expected progress unchanged after re-merge, got %d then %d", first, got)
	}
	if v, ok := g.Cell("d1", "c2"); !ok || v.Value != "Delaware" {
		t.Errorf("Expected cell to survive re-merge, got %v (present=%v)", v.Value, ok)
	}
}

// TestMergeDropsOrphanedKeys tests that cells keyed by unknown columns never
// enter the grid.
func TestMergeDropsOrphanedKeys(t *testing.T) {
	g := loadedGrid(t)
	g.Merge(&casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{
			"c1":      cell("2024-01-01"),
			"deleted": cell("stale"),
		}},
	}})

	if _, ok := g.Cell("d1", "deleted"); ok {
		t.Error("Expected orphaned column key to be dropped")
	}
	if _, ok := g.Cell("d1", "c1"); !ok {
		t.Error("Expected known column cell to be kept")
	}
	if got := g.Progress(); got != 17 {
		t.Errorf("Expected orphaned cell excluded from progress, got %d", got)
	}
}

// TestMergeKeepsAbsentCells tests that a partial snapshot does not erase
// cells it omits.
func TestMergeKeepsAbsentCells(t *testing.T) {
	g := loadedGrid(t)
	g.Merge(&casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{"c1": cell("2024-01-01")}},
	}})
	g.Merge(&casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{"c2": cell("Delaware")}},
	}})

	if _, ok := g.Cell("d1", "c1"); !ok {
		t.Error("Expected earlier cell to survive a snapshot that omits it")
	}
}

// TestSetColumnsRefusedWhileRunning tests the structural-edit guard.
func TestSetColumnsRefusedWhileRunning(t *testing.T) {
	g := loadedGrid(t)
	g.running = true

	err := g.SetColumns(context.Background(), testColumns())
	if err == nil {
		t.Fatal("Expected column edit to be refused while running")
	}
	if !strings.Contains(err.Error(), "extraction run is in progress") {
		t.Errorf("Unexpected error: %v", err)
	}
}

// TestSetColumnsDropsRemovedColumnCells tests that deleting a column also
// deletes its cells locally.
func TestSetColumnsDropsRemovedColumnCells(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		var req struct {
			Columns []casedev.ExtractionColumn `json:"columns"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(casedev.TabularAnalysis{
			ID:      "an1",
			Status:  casedev.StatusDraft,
			Columns: req.Columns,
		})
	}))
	defer srv.Close()

	g := New(casedev.New(srv.URL, "key"), "an1")
	g.columns = testColumns()
	g.documents = testDocs()
	g.Merge(&casedev.TabularAnalysis{Rows: []casedev.AnalysisRow{
		{DocumentID: "d1", Data: map[string]casedev.CellValue{"c1": cell("2024-01-01"), "c2": cell("Delaware")}},
	}})

	if err := g.DeleteColumn(context.Background(), "c2"); err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}

	if _, ok := g.Cell("d1", "c2"); ok {
		t.Error("Expected deleted column's cells to be dropped")
	}
	if _, ok := g.Cell("d1", "c1"); !ok {
		t.Error("Expected surviving column's cells to be kept")
	}
	if len(g.Columns()) != 1 {
		t.Errorf("Expected 1 column after delete, got %d", len(g.Columns()))
	}
}

// TestRunExtraction tests a full run: trigger, poll snapshots into the grid,
// stop on terminal status.
func TestRunExtraction(t *testing.T) {
	gets := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/run-workflow") {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		gets++
		status := casedev.StatusCompleted
		json.NewEncoder(w).Encode(casedev.TabularAnalysis{
			ID:     "an1",
			Status: status,
			Rows: []casedev.AnalysisRow{
				{DocumentID: "d1", Data: map[string]casedev.CellValue{"c1": cell("2024-01-01")}},
			},
		})
	}))
	defer srv.Close()

	g := New(casedev.New(srv.URL, "key"), "an1")
	g.columns = testColumns()
	g.documents = testDocs()

	final, err := g.RunExtraction(context.Background())
	if err != nil {
		t.Fatalf("RunExtraction failed: %v", err)
	}
	if final.Status != casedev.StatusCompleted {
		t.Errorf("Expected completed, got %q", final.Status)
	}
	if _, ok := g.Cell("d1", "c1"); !ok {
		t.Error("Expected polled snapshot to be merged into the grid")
	}
	if g.Running() {
		t.Error("Expected running flag cleared after the run")
	}
	// Initial fetch plus the confirming fetch after the terminal status.
	if gets != 2 {
		t.Errorf("Expected 2 analysis fetches, got %d", gets)
	}
}
