package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/quadra/itemx/internal/batch"
	"github.com/quadra/itemx/internal/table"
)

// fileField is the multipart form field carrying the uploaded PDFs.
const fileField = "file"

// upload is one saved multipart file: the client's name and the temp path
// it was spooled to.
type upload struct {
	name string
	path string
}

// saveUploads spools the request's PDF files into a fresh temp directory,
// one numbered subdirectory per file so duplicate upload names never clash
// while the original base names survive for output naming.
func (s *Server) saveUploads(r *http.Request) (dir string, uploads []upload, err error) {
	maxBytes := int64(s.config.MaxUploadMB) << 20
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return "", nil, fmt.Errorf("parse multipart form: %w", err)
	}
	files := r.MultipartForm.File[fileField]
	if len(files) == 0 {
		return "", nil, errors.New("no files uploaded")
	}

	dir, err = os.MkdirTemp(s.config.UploadTempDir, "itemx-upload-")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	for i, fh := range files {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			_ = os.RemoveAll(dir)
			return "", nil, fmt.Errorf("unsupported file type: %s", name)
		}
		sub := filepath.Join(dir, strconv.Itoa(i))
		if err := os.MkdirAll(sub, 0755); err != nil {
			_ = os.RemoveAll(dir)
			return "", nil, fmt.Errorf("create temp dir: %w", err)
		}
		path := filepath.Join(sub, name)
		if err := saveUploadFile(fh, path); err != nil {
			_ = os.RemoveAll(dir)
			return "", nil, err
		}
		uploads = append(uploads, upload{name: name, path: path})
	}
	return dir, uploads, nil
}

func saveUploadFile(fh *multipart.FileHeader, path string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spool upload %s: %w", fh.Filename, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write upload %s: %w", fh.Filename, err)
	}
	return dst.Close()
}

// handleExtract accepts one or more PDFs and responds with a single .xlsx,
// or a .zip bundle when several documents yielded data. Temp files are
// removed once the response is written.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	dir, uploads, err := s.saveUploads(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(dir)

	results := make([]batch.Result, 0, len(uploads))
	for i, up := range uploads {
		outDir := filepath.Join(dir, "out", strconv.Itoa(i))
		res := s.processor.ProcessFile(r.Context(), up.path, outDir)
		res.Source = up.name
		if res.Err != nil {
			s.logger.Warn("extraction failed",
				zap.String("source", up.name), zap.Error(res.Err))
		}
		results = append(results, res)
	}

	var produced []batch.Result
	for _, res := range results {
		if res.Output != "" {
			produced = append(produced, res)
		}
	}
	if len(produced) == 0 {
		s.respondExtractFailure(w, results)
		return
	}

	if len(produced) == 1 {
		s.sendFile(w, produced[0].Output, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return
	}

	bundle := filepath.Join(dir, "planilhas_extraidas.zip")
	f, err := os.Create(bundle)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "bundle failed")
		return
	}
	if err := batch.BundleZip(produced, f); err != nil {
		_ = f.Close()
		s.logger.Error("zip bundle failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "bundle failed")
		return
	}
	_ = f.Close()
	s.sendFile(w, bundle, "application/zip")
}

// extractJSONResult is the per-file shape of the JSON extraction response.
type extractJSONResult struct {
	Source  string      `json:"source"`
	Records interface{} `json:"records,omitempty"`
	Count   int         `json:"count"`
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
}

// handleExtractJSON accepts the same upload form and responds with the
// reconstructed tables as JSON, one entry per file.
func (s *Server) handleExtractJSON(w http.ResponseWriter, r *http.Request) {
	dir, uploads, err := s.saveUploads(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer os.RemoveAll(dir)

	out := make([]extractJSONResult, 0, len(uploads))
	for _, up := range uploads {
		res := s.processor.ExtractFile(r.Context(), up.path)
		entry := extractJSONResult{Source: up.name, Count: res.Records, Status: "ok"}
		switch {
		case res.NoData():
			entry.Status = "no_data"
		case res.Err != nil:
			entry.Status = "failed"
			entry.Error = res.Err.Error()
		default:
			entry.Records = res.Table.Records
		}
		out = append(out, entry)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": out})
}

// respondExtractFailure reports why no workbook was produced: 422 when every
// document failed or was empty, with per-file reasons.
func (s *Server) respondExtractFailure(w http.ResponseWriter, results []batch.Result) {
	type failure struct {
		Source string `json:"source"`
		Reason string `json:"reason"`
	}
	failures := make([]failure, 0, len(results))
	for _, res := range results {
		reason := "unknown"
		switch {
		case errors.Is(res.Err, table.ErrHeaderNotFound):
			reason = "column headers not found"
		case errors.Is(res.Err, table.ErrEmptyDocument):
			reason = "no line items found"
		case res.Err != nil:
			reason = res.Err.Error()
		}
		failures = append(failures, failure{Source: res.Source, Reason: reason})
	}
	s.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":    "no spreadsheets produced",
		"failures": failures,
	})
}

func (s *Server) sendFile(w http.ResponseWriter, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "output not available")
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("response write failed", zap.String("path", path), zap.Error(err))
	}
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusNotImplemented, "job history not enabled")
		return
	}
	offset := queryInt(r.URL.Query().Get("offset"), 0)
	limit := queryInt(r.URL.Query().Get("limit"), 50)
	jobs, err := s.storage.ListJobs(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list jobs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountJobs(r.Context())
	if err != nil {
		s.logger.Error("count jobs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs, "total": total})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
