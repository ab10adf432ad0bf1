package mangadl

import (
	"context"
	"time"
)

// Record statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Record is an entry in the download history.
type Record struct {
	ID          string    `json:"id"`
	Website     string    `json:"website"`
	Series      string    `json:"series"`
	Chapter     string    `json:"chapter"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason"`
	ArchivePath string    `json:"archivePath"`
	ArchiveHash string    `json:"archiveHash"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *Record) Validate() error {
	if r.Website == "" {
		return Errorf(EINVALID, "record website required")
	}
	if r.Chapter == "" {
		return Errorf(EINVALID, "record chapter required")
	}
	switch r.Status {
	case StatusCompleted, StatusSkipped, StatusFailed:
	default:
		return Errorf(EINVALID, "invalid record status %q", r.Status)
	}
	return nil
}

// NewRecord builds a history record from a chapter outcome.
func NewRecord(o Outcome, archivePath string) *Record {
	r := &Record{
		Website:     o.Chapter.Website,
		Series:      o.Chapter.Series,
		Chapter:     o.Chapter.Name,
		ArchivePath: archivePath,
	}
	switch {
	case o.Failed():
		r.Status = StatusFailed
		r.Reason = o.Reason
		r.ArchivePath = ""
	case o.Skipped:
		r.Status = StatusSkipped
	default:
		r.Status = StatusCompleted
	}
	return r
}

// HistoryService records chapter outcomes across runs.
type HistoryService interface {
	// CreateRecord stores a new record. ID and CreatedAt are set on success.
	CreateRecord(ctx context.Context, record *Record) error

	// FindRecords retrieves records matching the filter, newest first.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)
}

// RecordFilter represents a filter for FindRecords.
type RecordFilter struct {
	Website *string `json:"website"`
	Series  *string `json:"series"`
	Status  *string `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
