// Package storage defines the persistence interface for the extraction job
// history.
package storage

import (
	"context"

	"github.com/quadra/itemx/internal/models"
)

// Storage defines job history persistence operations.
type Storage interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, offset, limit int) ([]*models.Job, error)
	CountJobs(ctx context.Context) (int64, error)

	Close() error
}
