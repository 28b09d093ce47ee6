package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/parser"
	"github.com/contratoclaro/contratoclaro/internal/pipeline"
)

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	force := r.FormValue("force") == "true"
	resp, code := s.submitDocument(data, filename, force)
	writeJSON(w, code, resp)
}

func (s *Server) handleBatchAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	force := r.FormValue("force") == "true"

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		resp, _ := s.submitDocument(data, filename, force)
		results = append(results, resp)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"documents": results})
}

// submitDocument dedups by content hash and queues a job when the document
// is new (or force re-analysis was requested). Returns the response body
// and the HTTP status for the single-upload case.
func (s *Server) submitDocument(data []byte, filename string, force bool) (map[string]any, int) {
	docID := pipeline.DocumentID(data)

	if !force {
		if _, ok := s.orchestrator.Results().Get(docID); ok {
			return map[string]any{
				"document_id": docID,
				"filename":    filename,
				"status":      pipeline.StatusDupSkipped,
				"result_url":  fmt.Sprintf("/api/analysis/%s", docID),
			}, http.StatusOK
		}
		if job := s.orchestrator.GetJob(docID); job != nil && !job.CurrentStatus().Terminal() {
			return map[string]any{
				"document_id": docID,
				"filename":    filename,
				"status":      job.CurrentStatus(),
				"poll_url":    fmt.Sprintf("/api/analysis/%s/status", docID),
			}, http.StatusAccepted
		}
	}

	now := time.Now()
	job := &pipeline.Job{
		DocID:       docID,
		Status:      pipeline.StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		ContentHash: pipeline.ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	job.SetFileData(data)

	if err := s.orchestrator.Submit(job); err != nil {
		return map[string]any{
			"document_id": docID,
			"filename":    filename,
			"error":       err.Error(),
		}, http.StatusServiceUnavailable
	}

	return map[string]any{
		"document_id": docID,
		"filename":    filename,
		"status":      job.Status,
		"poll_url":    fmt.Sprintf("/api/analysis/%s/status", docID),
	}, http.StatusAccepted
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
