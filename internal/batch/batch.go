// Package batch runs extraction over one or more PDF files, writing an Excel
// workbook per document and a zip bundle for multi-file runs. A failed
// document never aborts its siblings; each file gets its own outcome.
package batch

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quadra/itemx/internal/models"
	"github.com/quadra/itemx/internal/pdftext"
	"github.com/quadra/itemx/internal/sheet"
	"github.com/quadra/itemx/internal/storage"
	"github.com/quadra/itemx/internal/table"
)

// Result is the outcome of extracting one document.
type Result struct {
	Source  string        // source PDF path
	Output  string        // written workbook path, empty when none was produced
	Table   *models.Table // extracted table, nil on failure
	Pages   int
	Records int
	Err     error
}

// NoData reports whether the document parsed cleanly but contained no items.
func (r Result) NoData() bool {
	return errors.Is(r.Err, table.ErrEmptyDocument)
}

// Processor extracts tables from PDFs and writes workbooks.
type Processor struct {
	rec    *table.Reconstructor
	store  storage.Storage // optional; records job history when set
	logger *zap.Logger     // optional; debug logging when set
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithStorage sets a job history store.
func WithStorage(store storage.Storage) ProcessorOption {
	return func(p *Processor) { p.store = store }
}

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor creates a processor around the given reconstructor.
func NewProcessor(rec *table.Reconstructor, opts ...ProcessorOption) *Processor {
	p := &Processor{rec: rec}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract reads the PDF at path and reconstructs its table without writing
// any output.
func (p *Processor) Extract(path string) (*models.Table, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read file: %w", err)
	}
	return p.ExtractBytes(content)
}

// ExtractBytes reconstructs the table from in-memory PDF content.
func (p *Processor) ExtractBytes(content []byte) (*models.Table, int, error) {
	tokens, err := pdftext.Read(content)
	if err != nil {
		return nil, 0, err
	}
	pages, err := pdftext.PageCount(content)
	if err != nil {
		pages = 0
	}
	t, err := p.rec.Extract(tokens)
	if err != nil {
		return nil, pages, err
	}
	return &t, pages, nil
}

// ExtractFile extracts the table from one PDF without writing a workbook.
// The outcome is still recorded in the job history when a store is set.
func (p *Processor) ExtractFile(ctx context.Context, path string) Result {
	res := Result{Source: path}
	t, pages, err := p.Extract(path)
	res.Pages = pages
	if err != nil {
		res.Err = err
	} else {
		res.Table = t
		res.Records = t.Len()
	}
	p.record(ctx, res)
	return res
}

// ProcessFile extracts the table from one PDF and writes the workbook into
// outDir. The outcome is recorded in the job history when a store is set.
func (p *Processor) ProcessFile(ctx context.Context, path, outDir string) Result {
	res := Result{Source: path}
	t, pages, err := p.Extract(path)
	res.Pages = pages
	if err != nil {
		res.Err = err
		p.record(ctx, res)
		return res
	}
	res.Table = t
	res.Records = t.Len()

	output := filepath.Join(outDir, sheet.OutputName(path))
	if err := sheet.WriteFile(t, output); err != nil {
		res.Err = err
		p.record(ctx, res)
		return res
	}
	res.Output = output
	if p.logger != nil {
		p.logger.Debug("document extracted",
			zap.String("source", path),
			zap.String("output", output),
			zap.Int("records", res.Records))
	}
	p.record(ctx, res)
	return res
}

// ProcessAll runs ProcessFile over every path in order.
func (p *Processor) ProcessAll(ctx context.Context, paths []string, outDir string) []Result {
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		results = append(results, p.ProcessFile(ctx, path, outDir))
	}
	return results
}

// record writes the result to the job history store, if configured.
func (p *Processor) record(ctx context.Context, res Result) {
	if p.store == nil {
		return
	}
	job := &models.Job{
		ID:      uuid.NewString(),
		Source:  filepath.Base(res.Source),
		Pages:   res.Pages,
		Records: res.Records,
		Status:  models.JobStatusDone,
	}
	switch {
	case res.NoData():
		job.Status = models.JobStatusNoData
	case res.Err != nil:
		job.Status = models.JobStatusFailed
		job.Error = res.Err.Error()
	}
	if err := p.store.CreateJob(ctx, job); err != nil && p.logger != nil {
		p.logger.Warn("job history write failed", zap.String("source", res.Source), zap.Error(err))
	}
}

// BundleZip writes the workbooks named in results into a zip archive at w.
// Results without an output file are skipped. Entry names are de-duplicated
// with a numeric suffix when sources share a base name.
func BundleZip(results []Result, w io.Writer) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]int)
	for _, res := range results {
		if res.Output == "" {
			continue
		}
		name := filepath.Base(res.Output)
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		seen[filepath.Base(res.Output)]++

		f, err := os.Open(res.Output)
		if err != nil {
			_ = zw.Close()
			return fmt.Errorf("open %s: %w", res.Output, err)
		}
		entry, err := zw.Create(name)
		if err != nil {
			_ = f.Close()
			_ = zw.Close()
			return fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := io.Copy(entry, f); err != nil {
			_ = f.Close()
			_ = zw.Close()
			return fmt.Errorf("write zip entry %s: %w", name, err)
		}
		_ = f.Close()
	}
	return zw.Close()
}
