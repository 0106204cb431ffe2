package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quadra/itemx/internal/models"
	"github.com/quadra/itemx/internal/storage"
	"github.com/quadra/itemx/internal/table"
)

func newTestProcessor(t *testing.T) (*Processor, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewProcessor(table.NewReconstructor(), WithStorage(store)), store
}

func writeGarbagePDF(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessFile_garbageInputRecordsFailedJob(t *testing.T) {
	p, store := newTestProcessor(t)
	dir := t.TempDir()
	path := writeGarbagePDF(t, dir)

	res := p.ProcessFile(context.Background(), path, dir)
	if res.Err == nil {
		t.Fatal("expected error for garbage input")
	}
	if res.Output != "" {
		t.Errorf("no workbook should be written, got %s", res.Output)
	}

	jobs, err := store.ListJobs(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != models.JobStatusFailed {
		t.Errorf("status = %s, want %s", jobs[0].Status, models.JobStatusFailed)
	}
	if jobs[0].Source != "broken.pdf" {
		t.Errorf("source = %s", jobs[0].Source)
	}
	if jobs[0].Error == "" {
		t.Error("failed job should carry the error text")
	}
}

func TestProcessFile_missingFile(t *testing.T) {
	p, _ := newTestProcessor(t)
	res := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), t.TempDir())
	if res.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestProcessAll_oneFailureDoesNotAbortSiblings(t *testing.T) {
	p, _ := newTestProcessor(t)
	dir := t.TempDir()
	a := writeGarbagePDF(t, dir)
	b := filepath.Join(dir, "missing.pdf")

	results := p.ProcessAll(context.Background(), []string{a, b}, dir)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Err == nil {
			t.Errorf("result %d: expected error", i)
		}
	}
}

func TestExtractFile_writesNoWorkbook(t *testing.T) {
	p, store := newTestProcessor(t)
	dir := t.TempDir()
	path := writeGarbagePDF(t, dir)

	res := p.ExtractFile(context.Background(), path)
	if res.Err == nil {
		t.Fatal("expected error for garbage input")
	}
	if res.Output != "" {
		t.Errorf("ExtractFile must not produce output, got %s", res.Output)
	}
	n, err := store.CountJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 recorded job, got %d", n)
	}
}

func TestResult_NoData(t *testing.T) {
	res := Result{Err: table.ErrEmptyDocument}
	if !res.NoData() {
		t.Error("ErrEmptyDocument should be reported as no-data")
	}
	res = Result{Err: errors.New("boom")}
	if res.NoData() {
		t.Error("generic error is not no-data")
	}
	if (Result{}).NoData() {
		t.Error("nil error is not no-data")
	}
}

func TestBundleZip(t *testing.T) {
	dir := t.TempDir()
	mkFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}
	results := []Result{
		{Output: mkFile("a_extracao.xlsx", "first")},
		{Source: "failed.pdf", Err: errors.New("boom")}, // no output, skipped
		{Output: mkFile("b_extracao.xlsx", "second")},
	}

	var buf bytes.Buffer
	if err := BundleZip(results, &buf); err != nil {
		t.Fatalf("BundleZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("failed to open bundle: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	names := []string{zr.File[0].Name, zr.File[1].Name}
	if names[0] != "a_extracao.xlsx" || names[1] != "b_extracao.xlsx" {
		t.Errorf("entry names = %v", names)
	}
}

func TestBundleZip_dedupesNames(t *testing.T) {
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")
	for _, d := range []string{dirA, dirB} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(d, "orc_extracao.xlsx"), []byte(d), 0600); err != nil {
			t.Fatal(err)
		}
	}
	results := []Result{
		{Output: filepath.Join(dirA, "orc_extracao.xlsx")},
		{Output: filepath.Join(dirB, "orc_extracao.xlsx")},
	}

	var buf bytes.Buffer
	if err := BundleZip(results, &buf); err != nil {
		t.Fatalf("BundleZip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	if zr.File[0].Name == zr.File[1].Name {
		t.Errorf("duplicate entry name %s", zr.File[0].Name)
	}
	if zr.File[1].Name != "orc_extracao_1.xlsx" {
		t.Errorf("second entry = %s, want orc_extracao_1.xlsx", zr.File[1].Name)
	}
}

func TestBundleZip_missingOutputFile(t *testing.T) {
	results := []Result{{Output: filepath.Join(t.TempDir(), "gone.xlsx")}}
	var buf bytes.Buffer
	if err := BundleZip(results, &buf); err == nil {
		t.Fatal("expected error for missing workbook file")
	}
}
