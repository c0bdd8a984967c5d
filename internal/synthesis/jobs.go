package synthesis

import (
	"sync"
	"time"
)

// JobStatus represents the state of one study guide synthesis run.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusAnalyzing JobStatus = "analyzing"
	StatusAIFanout  JobStatus = "ai-fanout"
	StatusFallback  JobStatus = "fallback"
	StatusMerging   JobStatus = "merging"
	StatusComplete  JobStatus = "complete"
	StatusError     JobStatus = "error"
)

// Job tracks one queued study guide request through the synthesis state
// machine.
type Job struct {
	mu sync.Mutex

	ID          string    `json:"job_id"`
	DocumentIDs []string  `json:"document_ids"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Result, populated on completion. Not serialized with the job itself.
	combined CombinedAnalysis
	sections []StudyGuideSection
}

// SetStatus updates the job status atomically.
func (j *Job) SetStatus(status JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.UpdatedAt = time.Now()
}

// Fail marks the job as errored with a user-facing message.
func (j *Job) Fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusError
	j.Error = msg
	j.UpdatedAt = time.Now()
}

// SetResult records the finished guide and marks the job complete.
func (j *Job) SetResult(combined CombinedAnalysis, sections []StudyGuideSection) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.combined = combined
	j.sections = sections
	j.Status = StatusComplete
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state, including the
// result once complete.
type JobSnapshot struct {
	ID          string              `json:"job_id"`
	DocumentIDs []string            `json:"document_ids"`
	Status      JobStatus           `json:"status"`
	Error       string              `json:"error,omitempty"`
	Combined    *CombinedAnalysis   `json:"combined_analysis,omitempty"`
	Sections    []StudyGuideSection `json:"sections,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:          j.ID,
		DocumentIDs: j.DocumentIDs,
		Status:      j.Status,
		Error:       j.Error,
	}
	if j.Status == StatusComplete {
		combined := j.combined
		snap.Combined = &combined
		snap.Sections = j.sections
	}
	return snap
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs idle past the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}
