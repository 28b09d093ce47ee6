package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
	"github.com/contratoclaro/contratoclaro/internal/config"
	"github.com/contratoclaro/contratoclaro/internal/pipeline"
)

const testContract = "1 OBJETO\n\nConteúdo da cláusula um.\n\n2 VALOR\n\nO aporte será de R$ 100.000,00."

type stubAnalyzer struct{}

func (stubAnalyzer) AnalyzeClause(ctx context.Context, req analysis.ClauseRequest) (*analysis.ClauseAnalysis, error) {
	return &analysis.ClauseAnalysis{
		ClauseID:          req.ClauseID,
		ClausulaNumero:    req.Number,
		Titulo:            req.Title,
		TextoOriginal:     req.Text,
		TLDR:              "Resumo da cláusula.",
		ExplicacaoSimples: "Explicação simples.",
		PorqueImporta:     "Importa para o fundador.",
		Bandeira:          analysis.FlagVerde,
		MotivoBandeira:    "Termos usuais.",
		NivelComplexidade: 2,
	}, nil
}

func testConfig(apiKey string) config.Config {
	return config.Config{
		Port:                 "0",
		APIKey:               apiKey,
		LLMProvider:          "openai",
		LLMModel:             "gpt-4o-mini",
		LLMAPIKey:            "sk-test",
		LLMTimeout:           5 * time.Second,
		WorkerCount:          2,
		MaxQueueSize:         10,
		MaxConcurrentAnalyze: 2,
		MaxUploadBytes:       1 << 20,
		MaxClausePromptChars: 8000,
		JobTTL:               time.Hour,
		ResultTTL:            time.Hour,
	}
}

// newTestServer wires a Server to a running orchestrator backed by the
// stub analyzer. The cleanup stops the workers.
func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()
	cfg := testConfig(apiKey)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, stubAnalyzer{}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	provider := analysis.ProviderConfig{Name: cfg.LLMProvider, Model: cfg.LLMModel, APIKey: cfg.LLMAPIKey}
	return NewServer(orch, provider, analysis.NewLLMStats(time.Minute), log, cfg)
}

func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return body
}

// waitForResult polls the status endpoint until the job reaches a
// terminal state.
func waitForResult(t *testing.T, s *Server, docID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+docID+"/status", nil))
		body := decodeBody(t, rec)
		status, _ := body["status"].(string)
		if pipeline.JobStatus(status).Terminal() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("document %s did not finish in time", docID)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}

func TestAuthMiddlewareRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t, "secret-key")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"correct key", "Bearer secret-key", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analysis", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("got %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAuthDisabledWhenKeyUnset(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without auth, got %d", rec.Code)
	}
}

func TestAnalyzeUploadToReport(t *testing.T) {
	s := newTestServer(t, "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/analyze", "contrato.txt", testContract, nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	docID, _ := body["document_id"].(string)
	if docID == "" {
		t.Fatal("response missing document_id")
	}
	if want := pipeline.DocumentID([]byte(testContract)); docID != want {
		t.Errorf("document_id = %s, want content hash %s", docID, want)
	}

	waitForResult(t, s, docID)

	// Full analysis.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+docID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get analysis: expected 200, got %d", rec.Code)
	}
	var doc analysis.DocumentAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if doc.TotalClauses != 2 {
		t.Errorf("TotalClauses = %d, want 2", doc.TotalClauses)
	}

	// Listing includes the document.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))
	if !strings.Contains(rec.Body.String(), docID) {
		t.Errorf("listing does not mention %s", docID)
	}

	// Markdown and HTML reports.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+docID+"/report", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# Análise de Contrato") {
		t.Errorf("markdown report: code %d body %q", rec.Code, rec.Body.String()[:min(120, rec.Body.Len())])
	}
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+docID+"/report?format=html", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1") {
		t.Errorf("html report: code %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+docID+"/report?format=xml", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: expected 400, got %d", rec.Code)
	}

	// Delete, then everything 404s.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/analysis/"+docID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/"+docID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("after delete: expected 404, got %d", rec.Code)
	}
}

func TestAnalyzeDeduplicatesByContent(t *testing.T) {
	s := newTestServer(t, "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/analyze", "contrato.txt", testContract, nil))
	body := decodeBody(t, rec)
	docID, _ := body["document_id"].(string)
	waitForResult(t, s, docID)

	// Same bytes again: short-circuits to the stored result.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/analyze", "copia.txt", testContract, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate upload: expected 200, got %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["status"] != string(pipeline.StatusDupSkipped) {
		t.Errorf("status = %v, want %s", body["status"], pipeline.StatusDupSkipped)
	}

	// force=true re-queues despite the stored result.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/analyze", "contrato.txt", testContract, map[string]string{"force": "true"}))
	if rec.Code != http.StatusAccepted {
		t.Errorf("forced upload: expected 202, got %d", rec.Code)
	}
}

func TestAnalyzeRejectsUnsupportedExtension(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, uploadRequest(t, "/api/analyze", "malware.exe", "MZ", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBatchAnalyzeMixedFiles(t *testing.T) {
	s := newTestServer(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i, f := range []struct{ name, content string }{
		{"contrato-a.txt", testContract},
		{"planilha.xlsx", "not supported"},
	} {
		fw, err := mw.CreateFormFile("files", f.name)
		if err != nil {
			t.Fatalf("file %d: %v", i, err)
		}
		fw.Write([]byte(f.content))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze/batch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	docs, _ := body["documents"].([]any)
	if len(docs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(docs))
	}
	first := docs[0].(map[string]any)
	if first["document_id"] == "" || first["error"] != nil {
		t.Errorf("txt entry should have queued: %v", first)
	}
	second := docs[1].(map[string]any)
	if second["error"] == nil {
		t.Errorf("xlsx entry should have errored: %v", second)
	}
}

func TestStatusUnknownDocument(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analysis/deadbeef/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestProviderEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/llm/providers", nil))
	body := decodeBody(t, rec)
	if body["active"] != "openai" {
		t.Errorf("active = %v, want openai", body["active"])
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/llm/provider/openai", nil))
	if strings.Contains(rec.Body.String(), "sk-test") {
		t.Error("provider info leaked the API key")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/llm/provider/bard", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider: expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("llm stats: expected 200, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"contrato.pdf", "contrato.pdf"},
		{"../../etc/passwd", "passwd"},
		{"dir/sub/file.txt", "file.txt"},
		{"", "unnamed"},
		{".", "unnamed"},
		{"a..b.txt", "a_b.txt"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

