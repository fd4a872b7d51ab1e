package assistant

import (
	"os"
	"path/filepath"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

func TestSanitizeSessionID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"default", "default"},
		{"case-42_review", "case-42_review"},
		{"../../../etc/passwd", "_________etc_passwd"},
		{"a b/c", "a_b_c"},
		{"", "default"},
	}
	for _, tc := range cases {
		if got := sanitizeSessionID(tc.in); got != tc.want {
			t.Errorf("sanitizeSessionID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s := &Session{ID: "matter-1"}
	s.Messages = append(s.Messages,
		anthropic.NewBetaUserMessage(anthropic.NewBetaTextBlock("find the indemnity clause")))
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadSession("matter-1")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if len(loaded.Messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(loaded.Messages))
	}
}

func TestLoadMissingSession(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := LoadSession("never-saved")
	if err != nil {
		t.Fatalf("LoadSession failed: %v", err)
	}
	if len(s.Messages) != 0 {
		t.Errorf("Expected empty history, got %d messages", len(s.Messages))
	}
}

func TestLoadCorruptedSessionStartsFresh(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".casedeck", "assistant")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSession("broken")
	if err != nil {
		t.Fatalf("Expected corrupted session to load fresh, got %v", err)
	}
	if len(s.Messages) != 0 {
		t.Errorf("Expected empty history, got %d messages", len(s.Messages))
	}
}

func TestClearSessionIdempotent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s := &Session{ID: "temp"}
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := ClearSession("temp"); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}
	if err := ClearSession("temp"); err != nil {
		t.Errorf("Expected second clear to be a no-op, got %v", err)
	}
}
