package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/des-work/Arcano-Desk-sub000/internal/document"
)

// CacheSweeper lets the orchestrator's maintenance ticker reach the gateway
// response cache without depending on the gateway package.
type CacheSweeper interface {
	SweepCache()
}

// Orchestrator owns the study guide job queue: it accepts synthesis
// requests, runs them on a fixed worker pool, and keeps cache maintenance
// ticking.
type Orchestrator struct {
	jobs        *JobStore
	queue       chan *Job
	synthesizer *Synthesizer
	docs        *document.Store
	sweeper     CacheSweeper
	log         *slog.Logger

	workerCount  int
	maxQueueSize int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type OrchestratorConfig struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
}

func NewOrchestrator(cfg OrchestratorConfig, synth *Synthesizer, docs *document.Store, sweeper CacheSweeper, log *slog.Logger) *Orchestrator {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 32
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:         NewJobStore(cfg.JobTTL),
		queue:        make(chan *Job, cfg.MaxQueueSize),
		synthesizer:  synth,
		docs:         docs,
		sweeper:      sweeper,
		log:          log,
		workerCount:  cfg.WorkerCount,
		maxQueueSize: cfg.MaxQueueSize,
	}
}

// Start launches worker goroutines and the cache maintenance ticker.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.workerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, job)
				}
			}
		}()
	}

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
				if o.sweeper != nil {
					o.sweeper.SweepCache()
				}
			}
		}
	}()
}

// Stop gracefully shuts down the workers.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a study guide request for the given document IDs.
func (o *Orchestrator) Submit(documentIDs []string) (*Job, error) {
	docs := o.docs.GetAll(documentIDs)
	if len(docs) == 0 {
		return nil, fmt.Errorf("no known documents among %d requested", len(documentIDs))
	}

	now := time.Now()
	job := &Job{
		ID:          document.HashHex(fmt.Appendf(nil, "%s-%d", document.Fingerprint(docs), now.UnixNano()))[:20],
		DocumentIDs: documentIDs,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.jobs.Put(job)

	select {
	case o.queue <- job:
		return job, nil
	default:
		job.Fail("queue full")
		return nil, fmt.Errorf("job queue is full (%d)", o.maxQueueSize)
	}
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns the current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Synthesizer exposes the underlying synthesizer for synchronous operations.
func (o *Orchestrator) Synthesizer() *Synthesizer {
	return o.synthesizer
}

func (o *Orchestrator) process(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID)

	docs := o.docs.GetAll(job.DocumentIDs)
	if len(docs) == 0 {
		log.Error("documents disappeared before processing")
		job.Fail("documents no longer available")
		return
	}

	combined, sections, err := o.synthesizer.synthesize(ctx, docs, job.SetStatus)
	if err != nil {
		log.Error("synthesis failed", "error", err)
		job.Fail(err.Error())
		return
	}

	job.SetResult(combined, sections)
	log.Info("study guide complete", "documents", len(docs), "sections", len(sections))
}
