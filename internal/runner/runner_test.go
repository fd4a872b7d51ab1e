package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"casedeck/internal/casedev"
	"casedeck/internal/events"
)

// fakeBackend serves the vault text and workflow execute endpoints. Object
// ids listed in failText get a 500 on the text fetch; ids listed in failExec
// get a 500 on the execute call.
func fakeBackend(t *testing.T, failText, failExec map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/text"):
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			objectID := parts[len(parts)-2]
			if failText[objectID] {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error":"ingestion incomplete"}`)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"text": "text of " + objectID})

		case strings.HasSuffix(r.URL.Path, "/execute"):
			var req casedev.ExecuteRequest
			json.NewDecoder(r.Body).Decode(&req)
			text, _ := req.Input["text"].(string)
			objectID := strings.TrimPrefix(text, "text of ")
			if failExec[objectID] {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, `{"error":"model overloaded"}`)
				return
			}
			json.NewEncoder(w).Encode(casedev.ExecutionResult{
				ID:     "exec-" + objectID,
				Status: "completed",
			})

		case strings.HasSuffix(r.URL.Path, "/execute-combined"):
			json.NewEncoder(w).Encode(casedev.ExecutionResult{
				ID:     "exec-combined",
				Status: "completed",
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func docRefs(ids ...string) []casedev.DocumentRef {
	docs := make([]casedev.DocumentRef, len(ids))
	for i, id := range ids {
		docs[i] = casedev.DocumentRef{ID: id, VaultID: "v1", Name: "doc-" + id}
	}
	return docs
}

// TestCanRun tests the pre-network guard.
func TestCanRun(t *testing.T) {
	if CanRun("", docRefs("a")) {
		t.Error("Expected CanRun to reject empty workflow id")
	}
	if CanRun("wf", nil) {
		t.Error("Expected CanRun to reject empty document selection")
	}
	if !CanRun("wf", docRefs("a")) {
		t.Error("Expected CanRun to accept workflow + document")
	}
}

// TestRunRejectsEmptySelection tests that Run fails before any network call.
func TestRunRejectsEmptySelection(t *testing.T) {
	r := New(casedev.New("http://127.0.0.1:1", "key"), nil)
	if _, err := r.Run(context.Background(), "wf", nil, ModeSeparate); err == nil {
		t.Fatal("Expected error for empty document selection")
	}
}

// TestSeparateModeResultSlots tests that every document yields exactly one
// result in document order, with failures folded in rather than dropped.
func TestSeparateModeResultSlots(t *testing.T) {
	srv := fakeBackend(t, map[string]bool{"b": true}, map[string]bool{"c": true})
	defer srv.Close()

	r := New(casedev.New(srv.URL, "key"), nil)
	batch, err := r.Run(context.Background(), "wf", docRefs("a", "b", "c"), ModeSeparate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(batch.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(batch.Results))
	}

	if batch.Results[0].Status != "completed" {
		t.Errorf("Expected result 0 completed, got %q", batch.Results[0].Status)
	}
	if batch.Results[0].DocumentName != "doc-a" {
		t.Errorf("Expected result 0 for doc-a, got %q", batch.Results[0].DocumentName)
	}

	if batch.Results[1].Status != "failed" {
		t.Errorf("Expected result 1 failed (text fetch), got %q", batch.Results[1].Status)
	}
	if !strings.Contains(batch.Results[1].Error, "fetch document text") {
		t.Errorf("Expected text-fetch error, got %q", batch.Results[1].Error)
	}

	if batch.Results[2].Status != "failed" {
		t.Errorf("Expected result 2 failed (execute), got %q", batch.Results[2].Status)
	}
	if batch.Results[2].DocumentName != "doc-c" {
		t.Errorf("Expected result 2 for doc-c, got %q", batch.Results[2].DocumentName)
	}
}

// TestCombinedMode tests that combined mode issues a single execution whose
// result stands for the whole batch.
func TestCombinedMode(t *testing.T) {
	srv := fakeBackend(t, nil, nil)
	defer srv.Close()

	r := New(casedev.New(srv.URL, "key"), nil)
	batch, err := r.Run(context.Background(), "wf", docRefs("a", "b"), ModeCombined)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(batch.Results) != 1 {
		t.Fatalf("Expected 1 combined result, got %d", len(batch.Results))
	}
	if batch.Results[0].ID != "exec-combined" {
		t.Errorf("Expected combined execution id, got %q", batch.Results[0].ID)
	}
}

// TestCombinedModeFailsWholeBatch tests that a combined-mode error fails the
// batch instead of producing synthetic results.
func TestCombinedModeFailsWholeBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, `{"error":"upstream down"}`)
	}))
	defer srv.Close()

	r := New(casedev.New(srv.URL, "key"), nil)
	if _, err := r.Run(context.Background(), "wf", docRefs("a", "b"), ModeCombined); err == nil {
		t.Fatal("Expected combined-mode failure to surface as an error")
	}
}

// TestBusyGuard tests that a second batch submitted mid-flight is rejected
// with ErrBusy and never reaches the backend.
func TestBusyGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(started) })
		<-release
		json.NewEncoder(w).Encode(map[string]string{"text": "t"})
	}))
	defer srv.Close()
	defer close(release)

	r := New(casedev.New(srv.URL, "key"), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background(), "wf", docRefs("a"), ModeSeparate)
	}()

	<-started
	if !r.Running() {
		t.Error("Expected Running to report true mid-flight")
	}
	_, err := r.Run(context.Background(), "wf", docRefs("b"), ModeSeparate)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("Expected ErrBusy, got %v", err)
	}

	release <- struct{}{}
	release <- struct{}{}
	<-done
	if r.Running() {
		t.Error("Expected Running to report false after the batch settles")
	}
}

// TestRunPublishesEvent tests that a finished batch lands on the bus.
func TestRunPublishesEvent(t *testing.T) {
	srv := fakeBackend(t, nil, nil)
	defer srv.Close()

	bus := events.NewBus()
	var got events.Event
	bus.Subscribe(EventRunFinished, func(e events.Event) { got = e })

	r := New(casedev.New(srv.URL, "key"), bus)
	if _, err := r.Run(context.Background(), "wf", docRefs("a"), ModeSeparate); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	batch, ok := got.Payload.(*Batch)
	if !ok {
		t.Fatalf("Expected *Batch payload, got %T", got.Payload)
	}
	if batch.WorkflowID != "wf" {
		t.Errorf("Expected workflow wf, got %q", batch.WorkflowID)
	}
}
