package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quadra/itemx/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetJob(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	job := &models.Job{
		ID:      "job-1",
		Source:  "orcamento.pdf",
		Pages:   2,
		Records: 14,
		Status:  models.JobStatusDone,
	}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Source != "orcamento.pdf" || got.Records != 14 || got.Status != models.JobStatusDone {
		t.Errorf("got %+v", got)
	}
	if got.Error != "" {
		t.Errorf("error text = %q, want empty", got.Error)
	}
}

func TestGetJob_notFound(t *testing.T) {
	store := newTestStorage(t)
	if _, err := store.GetJob(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestListAndCountJobs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, job := range []*models.Job{
		{ID: "a", Source: "um.pdf", Status: models.JobStatusDone, Records: 3},
		{ID: "b", Source: "dois.pdf", Status: models.JobStatusFailed, Error: "column headers not found"},
		{ID: "c", Source: "tres.pdf", Status: models.JobStatusNoData},
	} {
		if err := store.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob %s: %v", job.ID, err)
		}
	}

	jobs, err := store.ListJobs(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}

	n, err := store.CountJobs(ctx)
	if err != nil {
		t.Fatalf("CountJobs: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	limited, err := store.ListJobs(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListJobs limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d jobs with limit 2", len(limited))
	}

	failed, err := store.GetJob(ctx, "b")
	if err != nil {
		t.Fatalf("GetJob b: %v", err)
	}
	if failed.Error != "column headers not found" {
		t.Errorf("error text = %q", failed.Error)
	}
}
