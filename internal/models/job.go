package models

import "time"

// Job statuses.
const (
	JobStatusDone   = "done"
	JobStatusFailed = "failed"
	JobStatusNoData = "no_data"
)

// Job records one extraction run for the job history.
type Job struct {
	ID        string    `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Pages     int       `json:"pages" db:"pages"`
	Records   int       `json:"records" db:"records"`
	Status    string    `json:"status" db:"status"`
	Error     string    `json:"error,omitempty" db:"error"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
