package pipeline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/jsonlens/internal/beautify"
	"github.com/dgallion1/jsonlens/internal/scan"
)

// JobStatus represents the state of a scan job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusScanning    JobStatus = "scanning"
	StatusBeautifying JobStatus = "beautifying"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
	StatusDupSkipped  JobStatus = "duplicate_skipped"
)

// Finished reports whether no worker will touch a job in this state.
func (s JobStatus) Finished() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single document scan.
type Job struct {
	mu sync.Mutex

	ID          string `json:"job_id"`
	DuplicateOf string `json:"duplicate_of,omitempty"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	results  []CellResult
	errors   []string
	runs     int
	rerun    bool
}

// Progress tracks processing progress.
type Progress struct {
	TotalCells     int      `json:"total_cells"`
	CellsProcessed int      `json:"cells_processed"`
	Parsed         int      `json:"parsed"`
	Repaired       int      `json:"repaired"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// CellResult is the beautify outcome for one scanned cell.
type CellResult struct {
	Index    int              `json:"index"`
	Cell     scan.Cell        `json:"cell"`
	Outcome  beautify.Outcome `json:"outcome"`
	Repaired bool             `json:"repaired"`
	Value    json.RawMessage  `json:"value,omitempty"`
	Pretty   string           `json:"pretty,omitempty"`
}

// NewJob creates a queued job for an uploaded file.
func NewJob(filename, title string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction and a
// content hash index.
type JobStore struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	byHash map[string]string
	ttl    time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs:   make(map[string]*Job),
		byHash: make(map[string]string),
		ttl:    ttl,
	}
}

// Put registers a job. Duplicate markers are not indexed by hash, so the
// index always points at the job that holds the results.
func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	if job.ContentHash != "" && job.DuplicateOf == "" {
		s.byHash[job.ContentHash] = job.ID
	}
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// FindByHash returns the latest job for content with the given hash.
func (s *JobStore) FindByHash(hash string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[hash]
	if !ok {
		return nil
	}
	return s.jobs[id]
}

// All returns every job currently held.
func (s *JobStore) All() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
			if s.byHash[job.ContentHash] == id {
				delete(s.byHash, job.ContentHash)
			}
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// CurrentStatus returns the status under the job lock.
func (j *Job) CurrentStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// ErrorCount returns the number of recorded errors.
func (j *Job) ErrorCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.errors)
}

// StartRun clears the results of any previous run.
func (j *Job) StartRun() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	j.results = nil
	j.errors = nil
	j.Progress = Progress{}
	j.UpdatedAt = time.Now()
}

// SetCells records the scan result: the document title, unless one was
// given at upload, and the number of cells to beautify.
func (j *Job) SetCells(title string, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = title
	}
	j.results = make([]CellResult, total)
	j.Progress.TotalCells = total
	j.UpdatedAt = time.Now()
}

// Requeue resets a finished job so it can run again and returns the status
// and phase it replaced. A job that is still queued or running is marked to
// run again once it finishes, and ok is false.
func (j *Job) Requeue(phase string) (prev JobStatus, prevPhase string, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status == StatusDupSkipped {
		return "", "", false
	}
	if !j.Status.Finished() {
		j.rerun = true
		return "", "", false
	}
	prev, prevPhase = j.Status, j.Phase
	j.Status = StatusQueued
	j.Phase = phase
	j.UpdatedAt = time.Now()
	return prev, prevPhase, true
}

// takeRerun reports and clears the pending re-run mark.
func (j *Job) takeRerun() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	r := j.rerun
	j.rerun = false
	return r
}

// RecordResult stores the outcome for cell i and updates the counters.
func (j *Job) RecordResult(i int, cell scan.Cell, res beautify.Result) {
	r := CellResult{
		Index:    i,
		Cell:     cell,
		Outcome:  res.Outcome,
		Repaired: res.Repaired(),
	}
	if res.OK() {
		r.Value, _ = res.Value.MarshalJSON()
		r.Pretty = res.Pretty
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if i >= 0 && i < len(j.results) {
		j.results[i] = r
	}
	j.Progress.CellsProcessed++
	switch res.Outcome {
	case beautify.OutcomeParsed:
		j.Progress.Parsed++
	case beautify.OutcomeRepaired:
		j.Progress.Repaired++
	default:
		j.Progress.Skipped++
	}
	j.UpdatedAt = time.Now()
}

// Results returns a copy of the per-cell results in document order.
func (j *Job) Results() []CellResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]CellResult(nil), j.results...)
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Runs        int       `json:"runs"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		DuplicateOf: j.DuplicateOf,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Runs:        j.runs,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
