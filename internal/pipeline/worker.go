package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
	"github.com/contratoclaro/contratoclaro/internal/clause"
	"github.com/contratoclaro/contratoclaro/internal/contract"
	"github.com/contratoclaro/contratoclaro/internal/parser"
)

// ClauseAnalyzer is the slice of the LLM client the worker needs.
type ClauseAnalyzer interface {
	AnalyzeClause(ctx context.Context, req analysis.ClauseRequest) (*analysis.ClauseAnalysis, error)
}

// Worker processes a single document job end to end: parse, segment,
// summarize, analyze each clause, store the result.
type Worker struct {
	llm     ClauseAnalyzer
	results *ResultStore
	log     *slog.Logger

	provider             string
	model                string
	maxConcurrentAnalyze int
	maxClausePromptChars int
	pdfFallback          bool
}

type WorkerConfig struct {
	Provider             string
	Model                string
	MaxConcurrentAnalyze int
	MaxClausePromptChars int
	PDFFallbackPdftotext bool
}

func NewWorker(llm ClauseAnalyzer, results *ResultStore, log *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.MaxConcurrentAnalyze <= 0 {
		cfg.MaxConcurrentAnalyze = 5
	}
	return &Worker{
		llm:                  llm,
		results:              results,
		log:                  log,
		provider:             cfg.Provider,
		model:                cfg.Model,
		maxConcurrentAnalyze: cfg.MaxConcurrentAnalyze,
		maxClausePromptChars: cfg.MaxClausePromptChars,
		pdfFallback:          cfg.PDFFallbackPdftotext,
	}
}

// Process runs the full analysis pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("document_id", job.DocID, "filename", job.Filename)
	started := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if pdfParser, ok := p.(*parser.PDFParser); ok {
		pdfParser.FallbackPdftotext = w.pdfFallback
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	job.ClearFileData()

	// Phase 2: Segment into clauses.
	job.SetStatus(StatusSegmenting, "segmenting")
	extracted := clause.Extract(doc.Text, clause.DefaultOptions())
	sections := extracted.Top
	if len(sections) == 0 {
		// Contracts without numbered headers are analyzed whole.
		normalized := clause.Normalize(doc.Text)
		if normalized == "" {
			log.Warn("no extractable text")
			job.AddError("no extractable content")
			job.SetStatus(StatusFailed, "segmenting")
			return
		}
		sections = []clause.Section{{
			Title: "Documento Completo",
			Text:  normalized,
			End:   len(normalized),
		}}
	}
	job.SetTotalClauses(len(sections))
	log.Info("segmented document", "clauses", len(sections), "sub_clauses", len(extracted.Sub))

	// Phase 3: Contract summary card.
	job.SetStatus(StatusSummarizing, "summarizing")
	summary := contract.Extract(clause.Normalize(doc.Text), sections)

	// Phase 4: Analyze clauses with bounded concurrency.
	job.SetStatus(StatusAnalyzing, "analyzing")
	type clauseResult struct {
		analysis analysis.ClauseAnalysis
		fallback bool
		idx      int
	}
	results := make(chan clauseResult, len(sections))
	sem := make(chan struct{}, w.maxConcurrentAnalyze)

	for i, sec := range sections {
		sem <- struct{}{}
		go func(i int, sec clause.Section) {
			defer func() { <-sem }()
			req := analysis.ClauseRequest{
				ClauseID: fmt.Sprintf("%s-clause-%d", job.DocID, i+1),
				Number:   sec.Number,
				Title:    sec.Title,
				Text:     sec.Text,
				MaxChars: w.maxClausePromptChars,
			}

			var result *analysis.ClauseAnalysis
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				result, lastErr = w.llm.AnalyzeClause(ctx, req)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable analysis error", "clause", i, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					lastErr = ctx.Err()
				}
				if ctx.Err() != nil {
					break
				}
			}

			if lastErr != nil || result == nil {
				if lastErr != nil {
					log.Error("clause analysis failed", "clause", i, "error", lastErr)
					job.AddError(fmt.Sprintf("clause %d: %s", i+1, lastErr))
				}
				results <- clauseResult{
					analysis: analysis.FallbackAnalysis(req.ClauseID, sec.Number, sec.Title, sec.Text),
					fallback: true,
					idx:      i,
				}
				return
			}
			results <- clauseResult{analysis: *result, idx: i}
		}(i, sec)
	}

	clauses := make([]analysis.ClauseAnalysis, len(sections))
	fallbacks := 0
	for range sections {
		r := <-results
		job.IncrClausesAnalyzed()
		if r.fallback {
			fallbacks++
			job.IncrFallbacks()
		}
		clauses[r.idx] = r.analysis
	}
	log.Info("analysis complete", "clauses", len(clauses), "fallbacks", fallbacks)

	// Phase 5: Assemble and store.
	docAnalysis := &analysis.DocumentAnalysis{
		DocumentID:      job.DocID,
		Filename:        job.Filename,
		ContractSummary: summary,
		Clauses:         clauses,
		TotalPages:      doc.Pages,
		ProcessingTime:  time.Since(started).Seconds(),
		LLMProvider:     w.provider,
		LLMModel:        w.model,
		CreatedAt:       time.Now(),
		Warnings:        doc.Warnings,
	}
	docAnalysis.Finalize(fallbacks)
	w.results.Put(docAnalysis)

	switch {
	case fallbacks == len(clauses):
		job.SetStatus(StatusFailed, "done")
	case fallbacks > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
}
