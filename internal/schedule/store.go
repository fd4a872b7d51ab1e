package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"casedeck/internal/casedev"
)

// ScheduleType distinguishes one-shot vs recurring schedules.
type ScheduleType string

const (
	TypeOnce     ScheduleType = "once"
	TypePeriodic ScheduleType = "periodic"
)

// Schedule describes a workflow run to trigger later: once at an absolute
// time, or repeatedly on a cron expression.
type Schedule struct {
	ID         string                `json:"id"`
	Type       ScheduleType          `json:"type"`
	Name       string                `json:"name,omitempty"`
	WorkflowID string                `json:"workflow_id"`
	Documents  []casedev.DocumentRef `json:"documents"`
	Mode       string                `json:"mode"` // "separate" or "combined"

	// TypeOnce: trigger at this absolute time.
	At *time.Time `json:"at,omitempty"`

	// TypePeriodic: standard cron expression (5-field: min hour dom mon dow).
	Cron string `json:"cron,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Enabled   bool       `json:"enabled"`
}

// schedulesPath returns the path to the schedules file
// (~/.casedeck/schedules.json).
func schedulesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	dir := filepath.Join(home, ".casedeck")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return filepath.Join(dir, "schedules.json"), nil
}

// LoadSchedules reads all schedules from disk.
// Returns an empty slice if the file does not exist yet.
func LoadSchedules() ([]*Schedule, error) {
	path, err := schedulesPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []*Schedule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schedules: %w", err)
	}
	var schedules []*Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		// Corrupted file, start fresh rather than crashing.
		return []*Schedule{}, nil
	}
	return schedules, nil
}

// SaveSchedules atomically writes the full schedule list to disk.
func SaveSchedules(schedules []*Schedule) error {
	path, err := schedulesPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(schedules, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedules: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// AddSchedule generates an ID for the schedule and appends it to disk.
func AddSchedule(s *Schedule) error {
	if s.WorkflowID == "" {
		return fmt.Errorf("workflow_id is required")
	}
	if len(s.Documents) == 0 {
		return fmt.Errorf("at least one document is required")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	schedules, err := LoadSchedules()
	if err != nil {
		return err
	}
	schedules = append(schedules, s)
	return SaveSchedules(schedules)
}

// RemoveSchedule deletes the schedule with the given ID from disk.
// Returns nil if the ID was not found (idempotent).
func RemoveSchedule(id string) error {
	schedules, err := LoadSchedules()
	if err != nil {
		return err
	}
	filtered := schedules[:0]
	for _, s := range schedules {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	return SaveSchedules(filtered)
}

// MarkRan records the last trigger time for a schedule.
func MarkRan(id string, at time.Time) error {
	schedules, err := LoadSchedules()
	if err != nil {
		return err
	}
	for _, s := range schedules {
		if s.ID == id {
			s.LastRunAt = &at
			break
		}
	}
	return SaveSchedules(schedules)
}

// ListSchedules is an alias for LoadSchedules provided for callers that
// want explicit list semantics.
func ListSchedules() ([]*Schedule, error) {
	return LoadSchedules()
}
