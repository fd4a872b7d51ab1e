// Package runner fans a workflow execution out over selected documents and
// normalizes the results, whether the documents are processed one by one or
// combined into a single server-side call.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"casedeck/internal/casedev"
	"casedeck/internal/events"
)

// ErrBusy is returned when a batch is submitted while another is in flight.
var ErrBusy = errors.New("a workflow run is already in progress")

// Mode selects how a batch of documents is executed.
type Mode string

const (
	// ModeSeparate runs the workflow once per document, concurrently.
	ModeSeparate Mode = "separate"
	// ModeCombined issues a single execution over all documents.
	ModeCombined Mode = "combined"
)

// EventRunFinished is published on the bus after every completed batch.
const EventRunFinished = "run.finished"

// Batch is one completed fan-out, newest batches first in History.
type Batch struct {
	WorkflowID string
	Mode       Mode
	Results    []casedev.ExecutionResult
}

// Runner executes workflow batches against an external client.
type Runner struct {
	client *casedev.Client
	bus    *events.Bus

	mu      sync.Mutex
	running bool
	history []casedev.ExecutionResult
}

// New returns a runner. bus may be nil.
func New(client *casedev.Client, bus *events.Bus) *Runner {
	return &Runner{client: client, bus: bus}
}

// CanRun reports whether a batch could be submitted: a workflow must be
// selected and at least one document picked.
func CanRun(workflowID string, docs []casedev.DocumentRef) bool {
	return workflowID != "" && len(docs) > 0
}

// Running reports whether a batch is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// History returns accumulated results, newest batch first.
func (r *Runner) History() []casedev.ExecutionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]casedev.ExecutionResult, len(r.history))
	copy(out, r.history)
	return out
}

// Run executes the workflow over docs in the given mode. Only one batch may
// be in flight at a time; a second call while running returns an error
// without touching the network. Per-document failures in separate mode are
// folded into failed result entries, never dropped.
func (r *Runner) Run(ctx context.Context, workflowID string, docs []casedev.DocumentRef, mode Mode) (*Batch, error) {
	if !CanRun(workflowID, docs) {
		return nil, fmt.Errorf("select a workflow and at least one document before running")
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	var (
		results []casedev.ExecutionResult
		err     error
	)
	switch mode {
	case ModeCombined:
		results, err = r.runCombined(ctx, workflowID, docs)
	case ModeSeparate:
		results = r.runSeparate(ctx, workflowID, docs)
	default:
		return nil, fmt.Errorf("unknown execution mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.history = append(results, r.history...)
	r.mu.Unlock()

	batch := &Batch{WorkflowID: workflowID, Mode: mode, Results: results}
	if r.bus != nil {
		r.bus.Publish(events.Event{Name: EventRunFinished, Payload: batch})
	}
	return batch, nil
}

// runCombined issues one execution covering every document. A failure fails
// the whole batch.
func (r *Runner) runCombined(ctx context.Context, workflowID string, docs []casedev.DocumentRef) ([]casedev.ExecutionResult, error) {
	res, err := r.client.ExecuteCombined(ctx, workflowID, docs)
	if err != nil {
		return nil, fmt.Errorf("execute combined workflow: %w", err)
	}
	return []casedev.ExecutionResult{*res}, nil
}

// runSeparate runs the workflow once per document, concurrently. Each result
// lands in the slot matching its document's position, so the returned slice
// always has exactly len(docs) entries regardless of completion order.
func (r *Runner) runSeparate(ctx context.Context, workflowID string, docs []casedev.DocumentRef) []casedev.ExecutionResult {
	results := make([]casedev.ExecutionResult, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc casedev.DocumentRef) {
			defer wg.Done()
			results[i] = r.runOne(ctx, workflowID, doc)
		}(i, doc)
	}
	wg.Wait()

	return results
}

// runOne executes the workflow for a single document. Failures at either the
// text fetch or the execute call produce a failed result entry instead of
// aborting the batch.
func (r *Runner) runOne(ctx context.Context, workflowID string, doc casedev.DocumentRef) casedev.ExecutionResult {
	text, err := r.client.ObjectText(ctx, doc.VaultID, doc.ID)
	if err != nil {
		log.Printf("[Runner] fetch text for %s failed: %v", doc.Name, err)
		return failedResult(doc, fmt.Sprintf("fetch document text: %v", err))
	}

	res, err := r.client.Execute(ctx, workflowID, casedev.ExecuteRequest{
		Input: map[string]any{"text": text},
	})
	if err != nil {
		log.Printf("[Runner] execute for %s failed: %v", doc.Name, err)
		return failedResult(doc, err.Error())
	}

	res.DocumentName = doc.Name
	return *res
}

func failedResult(doc casedev.DocumentRef, msg string) casedev.ExecutionResult {
	return casedev.ExecutionResult{
		Status:       "failed",
		Error:        msg,
		DocumentName: doc.Name,
	}
}
