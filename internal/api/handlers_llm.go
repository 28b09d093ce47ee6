package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
)

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": analysis.SupportedProviders(),
		"active":    s.provider.Name,
	})
}

func (s *Server) handleProviderInfo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	switch name {
	case s.provider.Name:
		writeJSON(w, http.StatusOK, s.provider.Info())
	case analysis.ProviderOpenAI, analysis.ProviderLMStudio:
		// Known but inactive: report its shape without credentials.
		writeJSON(w, http.StatusOK, analysis.ProviderConfig{Name: name}.Info())
	default:
		jsonError(w, "unknown provider: "+name, http.StatusNotFound)
	}
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.provider.Name,
		"model":    s.provider.Model,
		"stats":    s.stats.Snapshot(),
	})
}
