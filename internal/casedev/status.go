package casedev

// Job status values are service-specific (OCR uses "pending", transcription
// uses "queued", tabular analyses use "draft") but share one terminal /
// non-terminal partition: polling keeps going until the status leaves the
// in-progress set and never restarts without a new submission.
const (
	StatusPending    = "pending"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDraft      = "draft"

	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusError     = "error"
	StatusCanceled  = "canceled"
)

// IsTerminal reports whether a job in the given status will never change
// again without a new submission.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusError, StatusCanceled:
		return true
	}
	return false
}
