package casedev

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestAuthorizationHeader tests that every request carries the bearer key.
func TestAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"vaults":[]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test-123")
	if _, err := c.ListVaults(context.Background()); err != nil {
		t.Fatalf("ListVaults failed: %v", err)
	}
	if gotAuth != "Bearer sk-test-123" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
}

// TestErrorMessageShapes tests both error body shapes the API answers with.
func TestErrorMessageShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string error", `{"error":"vault not found"}`, "vault not found"},
		{"object error", `{"error":{"message":"quota exceeded","code":"quota"}}`, "quota exceeded"},
		{"unstructured", `service unavailable`, "service unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			c := New(srv.URL, "key")
			_, err := c.ListVaults(context.Background())
			if err == nil {
				t.Fatal("Expected error")
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %T: %v", err, err)
			}
			if apiErr.Status != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", apiErr.Status)
			}
			if apiErr.Message != tc.want {
				t.Errorf("Expected message %q, got %q", tc.want, apiErr.Message)
			}
		})
	}
}

// TestIsNotFound tests the 404 predicate.
func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&APIError{Status: http.StatusNotFound}) {
		t.Error("Expected IsNotFound for status 404")
	}
	if IsNotFound(&APIError{Status: http.StatusInternalServerError}) {
		t.Error("Expected IsNotFound false for status 500")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("Expected IsNotFound false for a non-API error")
	}
}

// TestOCRRequestValidate tests the exactly-one-source rule and engine set.
func TestOCRRequestValidate(t *testing.T) {
	valid := OCRRequest{DocumentURL: "https://example.com/a.pdf", Engine: OCREngineDoctr}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}

	both := OCRRequest{DocumentURL: "https://example.com/a.pdf", VaultID: "v1", ObjectID: "o1", Engine: OCREngineDoctr}
	if err := both.Validate(); err == nil {
		t.Error("Expected error when both sources are set")
	}

	neither := OCRRequest{Engine: OCREngineDoctr}
	if err := neither.Validate(); err == nil {
		t.Error("Expected error when no source is set")
	}

	badEngine := OCRRequest{DocumentURL: "https://example.com/a.pdf", Engine: "carrier-pigeon"}
	if err := badEngine.Validate(); err == nil {
		t.Error("Expected error for unknown engine")
	}
}

// TestIsTerminal tests the shared terminal-status partition.
func TestIsTerminal(t *testing.T) {
	for _, s := range []string{StatusCompleted, StatusFailed, StatusError, StatusCanceled} {
		if !IsTerminal(s) {
			t.Errorf("Expected %q terminal", s)
		}
	}
	for _, s := range []string{StatusPending, StatusQueued, StatusProcessing, StatusDraft, ""} {
		if IsTerminal(s) {
			t.Errorf("Expected %q not terminal", s)
		}
	}
}
