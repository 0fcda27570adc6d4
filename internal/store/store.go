package store

// Store defines the interface for job report persistence.
// Implementations must be thread-safe and handle concurrent access gracefully.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the report doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveReport atomically saves the report of the given job, overwriting
	// any previous report. Implementations write to a temp file and rename.
	SaveReport(jobID string, report *Report) error

	// LoadReport retrieves the report for the given job.
	// Returns ErrNotFound if no report exists for this jobID.
	LoadReport(jobID string) (*Report, error)

	// ListReports returns metadata for all stored reports.
	// The returned slice may be empty if no reports exist.
	ListReports() ([]ReportInfo, error)

	// DeleteReport removes the report and all associated artifacts
	// (report.json, trace.jsonl) for the given job.
	// Returns ErrNotFound if no report exists for this jobID.
	DeleteReport(jobID string) error
}

// ErrNotFound is returned when a requested report does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing report error.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "report not found: " + e.JobID
	}
	return "report not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
