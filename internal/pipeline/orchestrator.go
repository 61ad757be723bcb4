package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/config"
	"github.com/dgallion1/jsonlens/internal/scan"
	"github.com/dgallion1/jsonlens/internal/settings"
)

// Orchestrator manages the document scan pipeline.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	beautifier *beautify.Beautifier
	settings   *settings.Store
	log        *slog.Logger
	cfg        config.Config

	mu          sync.Mutex
	closed      bool
	unsubscribe func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, b *beautify.Beautifier, store *settings.Store, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, cfg.MaxQueueSize),
		beautifier: b,
		settings:   store,
		log:        log,
		cfg:        cfg,
	}
}

// Start launches worker goroutines and re-processes finished jobs whenever
// the settings change.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	scanOpts := scan.Options{FallbackPdftotext: o.cfg.PDFFallbackPdftotext}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.beautifier, o.log, scanOpts, o.cfg.MaxConcurrentBeautify)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job, o.settings.Get())
				}
			}
		}()
	}

	o.mu.Lock()
	o.unsubscribe = o.settings.Subscribe(func(settings.Settings) { o.Reprocess() })
	o.mu.Unlock()

	// Start job store cleanup.
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
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	if err := o.enqueue(job); err != nil {
		job.SetStatus(StatusFailed, "queue_full")
		return err
	}
	return nil
}

// SubmitUnlessDuplicate queues job unless a job for the same content is
// already known. In that case job is recorded as a duplicate of it and the
// existing job is returned.
func (o *Orchestrator) SubmitUnlessDuplicate(job *Job) (*Job, error) {
	if existing := o.jobs.FindByHash(job.ContentHash); existing != nil {
		job.DuplicateOf = existing.ID
		job.SetFileData(nil)
		job.SetStatus(StatusDupSkipped, "dedup")
		o.jobs.Put(job)
		o.log.Info("duplicate upload, skipping", "job_id", job.ID, "existing_job_id", existing.ID)
		return existing, nil
	}
	return nil, o.Submit(job)
}

// run processes one job with the settings current at pickup. A settings
// change that lands after pickup sends the job round again.
func (o *Orchestrator) run(ctx context.Context, w *Worker, job *Job) {
	job.takeRerun()
	w.Process(ctx, job, o.settings.Get())
	o.finishRun(job)
}

func (o *Orchestrator) finishRun(job *Job) {
	if job.takeRerun() && o.requeue(job) {
		o.log.Info("settings changed during run, reprocessing", "job_id", job.ID)
	}
}

// Reprocess re-queues every finished job so results follow the current
// settings. Jobs that are queued or running are re-run when they finish.
// Jobs that do not fit in the queue are left as they are.
func (o *Orchestrator) Reprocess() int {
	n := 0
	for _, job := range o.jobs.All() {
		if o.requeue(job) {
			n++
		}
	}
	if n > 0 {
		o.log.Info("settings changed, reprocessing jobs", "jobs", n)
	}
	return n
}

func (o *Orchestrator) requeue(job *Job) bool {
	prev, prevPhase, ok := job.Requeue("settings_changed")
	if !ok {
		return false
	}
	if err := o.enqueue(job); err != nil {
		o.log.Warn("reprocess skipped", "job_id", job.ID, "error", err)
		job.SetStatus(prev, prevPhase)
		return false
	}
	return true
}

func (o *Orchestrator) enqueue(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("pipeline is stopped")
	}
	select {
	case o.queue <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
