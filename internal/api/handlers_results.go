package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contratoclaro/contratoclaro/internal/pipeline"
	"github.com/contratoclaro/contratoclaro/internal/report"
)

// handleAnalysisStatus returns job progress for a document. Once the job
// record expires the stored result still answers for terminal state.
func (s *Server) handleAnalysisStatus(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")

	if job := s.orchestrator.GetJob(docID); job != nil {
		snap := job.Snapshot()
		body := map[string]any{
			"document_id": snap.DocID,
			"status":      snap.Status,
			"phase":       snap.Phase,
			"filename":    snap.Filename,
			"progress":    snap.Progress,
		}
		if snap.Status.Terminal() && snap.Status != pipeline.StatusFailed {
			body["result_url"] = fmt.Sprintf("/api/analysis/%s", docID)
		}
		writeJSON(w, http.StatusOK, body)
		return
	}

	if doc, ok := s.orchestrator.Results().Get(docID); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"document_id": docID,
			"status":      pipeline.StatusCompleted,
			"filename":    doc.Filename,
			"result_url":  fmt.Sprintf("/api/analysis/%s", docID),
		})
		return
	}

	jsonError(w, "document not found", http.StatusNotFound)
}

// handleGetAnalysis returns the full analysis for a document.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	doc, ok := s.orchestrator.Results().Get(docID)
	if !ok {
		if job := s.orchestrator.GetJob(docID); job != nil && !job.CurrentStatus().Terminal() {
			jsonError(w, "analysis still in progress", http.StatusConflict)
			return
		}
		jsonError(w, "analysis not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleListAnalyses lists stored analyses, newest first.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	entries := s.orchestrator.Results().List()
	writeJSON(w, http.StatusOK, map[string]any{
		"analyses": entries,
		"count":    len(entries),
	})
}

// handleDeleteAnalysis removes the stored analysis and job record.
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	if !s.orchestrator.DeleteDocument(docID) {
		jsonError(w, "analysis not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}

// handleReport renders the analysis as Markdown or HTML.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	doc, ok := s.orchestrator.Results().Get(docID)
	if !ok {
		jsonError(w, "analysis not found", http.StatusNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, report.BuildMarkdown(doc))
	case "html":
		html, err := report.RenderHTML(doc)
		if err != nil {
			jsonError(w, "failed to render report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	default:
		jsonError(w, fmt.Sprintf("unsupported report format: %s", format), http.StatusBadRequest)
	}
}
