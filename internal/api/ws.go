package api

import (
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/contratoclaro/contratoclaro/internal/pipeline"
)

// progressEvent is one WebSocket frame of analysis progress.
type progressEvent struct {
	DocumentID string             `json:"document_id"`
	Status     pipeline.JobStatus `json:"status"`
	Phase      string             `json:"phase,omitempty"`
	Progress   *pipeline.Progress `json:"progress,omitempty"`
	ResultURL  string             `json:"result_url,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// streamProgress pushes job snapshots over a WebSocket until the job
// reaches a terminal state. Clients connect to /ws/{documentID} right
// after submitting an upload instead of polling the status endpoint.
func (s *Server) streamProgress(conn *websocket.Conn) {
	defer conn.Close()
	docID := chi.URLParam(conn.Request(), "documentID")

	job := s.orchestrator.GetJob(docID)
	if job == nil {
		// The job record may have expired while the result survived.
		if _, ok := s.orchestrator.Results().Get(docID); ok {
			websocket.JSON.Send(conn, progressEvent{
				DocumentID: docID,
				Status:     pipeline.StatusCompleted,
				ResultURL:  fmt.Sprintf("/api/analysis/%s", docID),
			})
			return
		}
		websocket.JSON.Send(conn, progressEvent{
			DocumentID: docID,
			Error:      "document not found",
		})
		return
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastStatus pipeline.JobStatus
	lastAnalyzed := -1
	for {
		snap := job.Snapshot()
		changed := snap.Status != lastStatus || snap.Progress.ClausesAnalyzed != lastAnalyzed
		if changed || snap.Status.Terminal() {
			ev := progressEvent{
				DocumentID: snap.DocID,
				Status:     snap.Status,
				Phase:      snap.Phase,
				Progress:   &snap.Progress,
			}
			if snap.Status.Terminal() && snap.Status != pipeline.StatusFailed {
				ev.ResultURL = fmt.Sprintf("/api/analysis/%s", docID)
			}
			if err := websocket.JSON.Send(conn, ev); err != nil {
				return
			}
			lastStatus = snap.Status
			lastAnalyzed = snap.Progress.ClausesAnalyzed
		}
		if snap.Status.Terminal() {
			return
		}

		select {
		case <-conn.Request().Context().Done():
			return
		case <-ticker.C:
		}
	}
}
