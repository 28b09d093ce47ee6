package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/config"
)

// Orchestrator manages the contract analysis pipeline.
type Orchestrator struct {
	jobs    *JobStore
	results *ResultStore
	queue   chan *Job
	llm     ClauseAnalyzer
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline; call Start to launch workers.
func NewOrchestrator(cfg config.Config, llm ClauseAnalyzer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		results: NewResultStore(cfg.ResultTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		llm:     llm,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.llm, o.results, o.log, WorkerConfig{
				Provider:             o.cfg.LLMProvider,
				Model:                o.cfg.LLMModel,
				MaxConcurrentAnalyze: o.cfg.MaxConcurrentAnalyze,
				MaxClausePromptChars: o.cfg.MaxClausePromptChars,
				PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext,
			})
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Periodic eviction of stale jobs and old analyses.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				o.results.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by document ID.
func (o *Orchestrator) GetJob(docID string) *Job {
	return o.jobs.Get(docID)
}

// Results exposes the store of completed analyses to the API layer.
func (o *Orchestrator) Results() *ResultStore {
	return o.results
}

// DeleteDocument removes both the job record and the stored analysis.
func (o *Orchestrator) DeleteDocument(docID string) bool {
	found := o.results.Delete(docID)
	if o.jobs.Get(docID) != nil {
		o.jobs.Delete(docID)
		found = true
	}
	return found
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
