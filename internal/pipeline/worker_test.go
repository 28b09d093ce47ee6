package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
)

type stubAnalyzer struct {
	failFor map[string]bool // clause number -> fail
}

func (s *stubAnalyzer) AnalyzeClause(_ context.Context, req analysis.ClauseRequest) (*analysis.ClauseAnalysis, error) {
	if s.failFor[req.Number] {
		return nil, fmt.Errorf("model unavailable")
	}
	return &analysis.ClauseAnalysis{
		ClauseID:       req.ClauseID,
		Titulo:         req.Title,
		TextoOriginal:  req.Text,
		TLDR:           "Resumo da cláusula " + req.Number,
		Bandeira:       analysis.FlagVerde,
		MotivoBandeira: "padrão de mercado",
		ClausulaNumero: req.Number,
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const workerContract = "1 OBJETO\n\nConteúdo da cláusula um.\n\n2 VALOR\n\nO aporte será de R$ 100.000,00."

func newTestJob(text string) *Job {
	data := []byte(text)
	job := &Job{
		DocID:     DocumentID(data),
		Status:    StatusQueued,
		Filename:  "contrato.txt",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData(data)
	return job
}

func TestWorker_ProcessCompletes(t *testing.T) {
	results := NewResultStore(time.Hour)
	w := NewWorker(&stubAnalyzer{}, results, testLogger(), WorkerConfig{
		Provider: "openai",
		Model:    "gpt-4o-mini",
	})

	job := newTestJob(workerContract)
	w.Process(context.Background(), job)

	if got := job.CurrentStatus(); got != StatusCompleted {
		t.Fatalf("status = %q, want completed (errors: %v)", got, job.Snapshot().Progress.Errors)
	}

	doc, ok := results.Get(job.DocID)
	if !ok {
		t.Fatal("expected stored analysis")
	}
	if doc.TotalClauses != 2 {
		t.Fatalf("total_clauses = %d, want 2", doc.TotalClauses)
	}
	if doc.Clauses[0].ClausulaNumero != "1" || doc.Clauses[1].ClausulaNumero != "2" {
		t.Errorf("clauses out of order: %+v", doc.Clauses)
	}
	if doc.RiskSummary.Verde != 2 {
		t.Errorf("risk summary = %+v, want 2 verde", doc.RiskSummary)
	}
	if doc.ConfidenceScore != 1.0 {
		t.Errorf("confidence = %v, want 1.0", doc.ConfidenceScore)
	}
	if doc.ContractSummary.Valores.Principal.Valor != 100000 {
		t.Errorf("principal = %v, want 100000", doc.ContractSummary.Valores.Principal.Valor)
	}
}

func TestWorker_PartialOnClauseFailure(t *testing.T) {
	results := NewResultStore(time.Hour)
	w := NewWorker(&stubAnalyzer{failFor: map[string]bool{"2": true}}, results, testLogger(), WorkerConfig{})

	job := newTestJob(workerContract)
	w.Process(context.Background(), job)

	if got := job.CurrentStatus(); got != StatusPartial {
		t.Fatalf("status = %q, want partial", got)
	}

	doc, _ := results.Get(job.DocID)
	if doc == nil {
		t.Fatal("expected stored analysis even with failures")
	}
	var fallback *analysis.ClauseAnalysis
	for i := range doc.Clauses {
		if doc.Clauses[i].ClausulaNumero == "2" {
			fallback = &doc.Clauses[i]
		}
	}
	if fallback == nil {
		t.Fatal("failed clause missing from result")
	}
	if fallback.Bandeira != analysis.FlagAmarelo {
		t.Errorf("fallback flag = %q, want amarelo", fallback.Bandeira)
	}
	if doc.ConfidenceScore != 0.5 {
		t.Errorf("confidence = %v, want 0.5", doc.ConfidenceScore)
	}
}

func TestWorker_FailedWhenEveryClauseFails(t *testing.T) {
	results := NewResultStore(time.Hour)
	w := NewWorker(&stubAnalyzer{failFor: map[string]bool{"1": true, "2": true}}, results, testLogger(), WorkerConfig{})

	job := newTestJob(workerContract)
	w.Process(context.Background(), job)

	if got := job.CurrentStatus(); got != StatusFailed {
		t.Fatalf("status = %q, want failed", got)
	}
}

func TestWorker_AnalyzesWholeDocumentWithoutHeaders(t *testing.T) {
	results := NewResultStore(time.Hour)
	w := NewWorker(&stubAnalyzer{}, results, testLogger(), WorkerConfig{})

	job := newTestJob("Contrato simples sem cabeçalhos numerados.\nApenas texto corrido de uma página.")
	w.Process(context.Background(), job)

	if got := job.CurrentStatus(); got != StatusCompleted {
		t.Fatalf("status = %q, want completed", got)
	}
	doc, _ := results.Get(job.DocID)
	if doc == nil || doc.TotalClauses != 1 {
		t.Fatalf("expected single whole-document clause, got %+v", doc)
	}
	if doc.Clauses[0].Titulo != "Documento Completo" {
		t.Errorf("titulo = %q, want Documento Completo", doc.Clauses[0].Titulo)
	}
}

func TestWorker_FailsOnUnsupportedFormat(t *testing.T) {
	results := NewResultStore(time.Hour)
	w := NewWorker(&stubAnalyzer{}, results, testLogger(), WorkerConfig{})

	job := newTestJob("conteúdo")
	job.Filename = "contrato.exe"
	w.Process(context.Background(), job)

	if got := job.CurrentStatus(); got != StatusFailed {
		t.Fatalf("status = %q, want failed", got)
	}
}
