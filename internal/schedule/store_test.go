package schedule

import (
	"testing"
	"time"

	"casedeck/internal/casedev"
)

func testSchedule(name string) *Schedule {
	at := time.Now().Add(time.Hour)
	return &Schedule{
		Type:       TypeOnce,
		Name:       name,
		WorkflowID: "wf_1",
		Documents:  []casedev.DocumentRef{{ID: "o1", VaultID: "v1", Name: "msa.pdf"}},
		Mode:       "separate",
		At:         &at,
		Enabled:    true,
	}
}

// TestAddAndListSchedules tests persistence plus id/created-at assignment.
func TestAddAndListSchedules(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	sc := testSchedule("nightly")
	if err := AddSchedule(sc); err != nil {
		t.Fatalf("AddSchedule failed: %v", err)
	}
	if sc.ID == "" {
		t.Error("Expected an id to be assigned")
	}
	if sc.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	schedules, err := ListSchedules()
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}
	if len(schedules) != 1 {
		t.Fatalf("Expected 1 schedule, got %d", len(schedules))
	}
	if schedules[0].WorkflowID != "wf_1" {
		t.Errorf("Expected workflow wf_1, got %q", schedules[0].WorkflowID)
	}
}

// TestAddScheduleValidation tests the workflow + document requirements.
func TestAddScheduleValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	sc := testSchedule("no-workflow")
	sc.WorkflowID = ""
	if err := AddSchedule(sc); err == nil {
		t.Error("Expected error for missing workflow id")
	}

	sc = testSchedule("no-docs")
	sc.Documents = nil
	if err := AddSchedule(sc); err == nil {
		t.Error("Expected error for empty document list")
	}
}

// TestRemoveSchedule tests removal and idempotence.
func TestRemoveSchedule(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	sc := testSchedule("once")
	if err := AddSchedule(sc); err != nil {
		t.Fatalf("AddSchedule failed: %v", err)
	}

	if err := RemoveSchedule(sc.ID); err != nil {
		t.Fatalf("RemoveSchedule failed: %v", err)
	}
	if err := RemoveSchedule(sc.ID); err != nil {
		t.Errorf("Expected second removal to be a no-op, got %v", err)
	}

	schedules, _ := ListSchedules()
	if len(schedules) != 0 {
		t.Errorf("Expected empty list, got %d", len(schedules))
	}
}

// TestMarkRan tests last-run bookkeeping.
func TestMarkRan(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	sc := testSchedule("tracked")
	if err := AddSchedule(sc); err != nil {
		t.Fatalf("AddSchedule failed: %v", err)
	}

	ranAt := time.Now()
	if err := MarkRan(sc.ID, ranAt); err != nil {
		t.Fatalf("MarkRan failed: %v", err)
	}

	schedules, _ := ListSchedules()
	if schedules[0].LastRunAt == nil {
		t.Fatal("Expected LastRunAt to be set")
	}
	if !schedules[0].LastRunAt.Equal(ranAt) {
		t.Errorf("Expected LastRunAt %v, got %v", ranAt, schedules[0].LastRunAt)
	}
}

// TestLoadSchedulesMissingFile tests that an absent file yields an empty list.
func TestLoadSchedulesMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	schedules, err := LoadSchedules()
	if err != nil {
		t.Fatalf("LoadSchedules failed: %v", err)
	}
	if len(schedules) != 0 {
		t.Errorf("Expected empty list, got %d", len(schedules))
	}
}
