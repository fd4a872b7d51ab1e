// Package grid maintains a document-by-column extraction matrix and tracks a
// remote tabular analysis run that fills its cells.
package grid

import (
	"context"
	"fmt"
	"math"
	"sync"

	"casedeck/internal/casedev"
	"casedeck/internal/poll"
)

// Grid mirrors one tabular analysis: its column definitions, document set,
// and the sparse per-document cell data filled in by extraction runs.
type Grid struct {
	client *casedev.Client

	mu         sync.Mutex
	analysisID string
	columns    []casedev.ExtractionColumn
	documents  []casedev.DocumentRef
	rows       map[string]map[string]casedev.CellValue
	running    bool
}

// New returns a grid bound to an analysis id.
func New(client *casedev.Client, analysisID string) *Grid {
	return &Grid{
		client:     client,
		analysisID: analysisID,
		rows:       make(map[string]map[string]casedev.CellValue),
	}
}

// Load fetches the analysis and replaces local state with it.
func (g *Grid) Load(ctx context.Context) error {
	a, err := g.client.GetAnalysis(ctx, g.analysisID)
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}
	g.mu.Lock()
	g.columns = a.Columns
	g.documents = a.Documents
	g.rows = make(map[string]map[string]casedev.CellValue)
	g.mu.Unlock()
	g.Merge(a)
	return nil
}

// Running reports whether an extraction run is in flight.
func (g *Grid) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Columns returns the current column definitions.
func (g *Grid) Columns() []casedev.ExtractionColumn {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]casedev.ExtractionColumn, len(g.columns))
	copy(out, g.columns)
	return out
}

// Cell returns the value at (documentID, columnID) and whether it exists yet.
// A cell is absent until the extraction has produced a value for it.
func (g *Grid) Cell(documentID, columnID string) (casedev.CellValue, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	row, ok := g.rows[documentID]
	if !ok {
		return casedev.CellValue{}, false
	}
	v, ok := row[columnID]
	return v, ok
}

// Merge folds a poll snapshot into the grid. Cells present in the snapshot
// replace local cells; cells absent from the snapshot are left untouched.
// Cell keys that no longer match a known column are dropped, so a column
// deleted between runs cannot resurface as an orphaned key. Merging the same
// snapshot twice leaves the grid unchanged after the first application.
func (g *Grid) Merge(a *casedev.TabularAnalysis) {
	g.mu.Lock()
	defer g.mu.Unlock()

	known := make(map[string]bool, len(g.columns))
	for _, c := range g.columns {
		known[c.ID] = true
	}

	for _, row := range a.Rows {
		dst := g.rows[row.DocumentID]
		if dst == nil {
			dst = make(map[string]casedev.CellValue)
			g.rows[row.DocumentID] = dst
		}
		for colID, cell := range row.Data {
			if !known[colID] {
				continue
			}
			dst[colID] = cell
		}
	}
}

// Progress returns the completed share of the grid as a rounded percentage.
// A cell counts as completed once it is present in row data at all.
func (g *Grid) Progress() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := len(g.documents) * len(g.columns)
	if total == 0 {
		return 0
	}
	done := 0
	for _, row := range g.rows {
		done += len(row)
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// SetColumns replaces the column set remotely, then locally. Structural edits
// are refused while an extraction run is in flight, since the run's responses
// are keyed by the columns it started with.
func (g *Grid) SetColumns(ctx context.Context, columns []casedev.ExtractionColumn) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return fmt.Errorf("cannot modify columns while an extraction run is in progress")
	}
	g.mu.Unlock()

	a, err := g.client.UpdateColumns(ctx, g.analysisID, columns)
	if err != nil {
		return fmt.Errorf("update columns: %w", err)
	}

	g.mu.Lock()
	g.columns = a.Columns
	for _, row := range g.rows {
		for colID := range row {
			if !hasColumn(a.Columns, colID) {
				delete(row, colID)
			}
		}
	}
	g.mu.Unlock()
	return nil
}

// AddColumn appends a column definition.
func (g *Grid) AddColumn(ctx context.Context, col casedev.ExtractionColumn) error {
	cols := g.Columns()
	col.Order = len(cols)
	return g.SetColumns(ctx, append(cols, col))
}

// DeleteColumn removes a column by id.
func (g *Grid) DeleteColumn(ctx context.Context, columnID string) error {
	cols := g.Columns()
	kept := cols[:0]
	for _, c := range cols {
		if c.ID != columnID {
			c.Order = len(kept)
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cols) {
		return fmt.Errorf("column %q not found", columnID)
	}
	return g.SetColumns(ctx, kept)
}

// RunExtraction triggers the remote extraction workflow and polls the
// analysis until it reaches a terminal status, merging every snapshot into
// the grid. Only one run may be active per grid.
func (g *Grid) RunExtraction(ctx context.Context) (*casedev.TabularAnalysis, error) {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil, fmt.Errorf("an extraction run is already in progress")
	}
	g.running = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
	}()

	if err := g.client.RunAnalysisWorkflow(ctx, g.analysisID); err != nil {
		return nil, fmt.Errorf("start extraction run: %w", err)
	}

	final, err := poll.Until(ctx, poll.Options[*casedev.TabularAnalysis]{
		Fetch: func(ctx context.Context) (*casedev.TabularAnalysis, error) {
			return g.client.GetAnalysis(ctx, g.analysisID)
		},
		Terminal: func(a *casedev.TabularAnalysis) bool {
			return casedev.IsTerminal(a.Status)
		},
		OnUpdate: g.Merge,
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

func hasColumn(cols []casedev.ExtractionColumn, id string) bool {
	for _, c := range cols {
		if c.ID == id {
			return true
		}
	}
	return false
}
