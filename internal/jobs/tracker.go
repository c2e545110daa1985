// Package jobs tracks long-running generation work and publishes progress
// events to an injected sink.
package jobs

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"gameforge/internal/domain"
)

// Event describes one observable change in a job's lifecycle.
type Event struct {
	JobID            string          `json:"job_id"`
	Status           string          `json:"status"`
	Progress         int             `json:"progress"`
	Message          string          `json:"message,omitempty"`
	AssetType        string          `json:"asset_type,omitempty"`
	Prompt           string          `json:"prompt,omitempty"`
	CurrentStep      int             `json:"current_step,omitempty"`
	TotalSteps       int             `json:"total_steps,omitempty"`
	EstimatedSeconds int             `json:"estimated_seconds,omitempty"`
	Result           json.RawMessage `json:"result,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// EventSink receives job events. Implementations must tolerate concurrent
// calls; the tracker never blocks job state changes on sink errors.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}

// Store mirrors job state to durable storage. Writes are best effort: the
// tracker ignores Upsert failures beyond logging inside the store itself.
// Load backs Get for IDs not in memory, so mirrored jobs keep resolving
// after a restart.
type Store interface {
	Upsert(ctx context.Context, job domain.Job) error
	Load(ctx context.Context, jobID string) (*domain.Job, error)
}

// ProgressConfig holds the cosmetic numbers shown to clients while a job is
// queued behind a provider call.
type ProgressConfig struct {
	SubmittedPercent int
	EstimatedSeconds int
}

// DefaultProgressConfig mirrors what the web client expects for a freshly
// submitted batch.
var DefaultProgressConfig = ProgressConfig{
	SubmittedPercent: 25,
	EstimatedSeconds: 45,
}

// BatchProgress maps item index i of n onto a percentage, placing each item
// at the midpoint of its share so progress moves on every item rather than
// jumping to 100 on the last one.
func BatchProgress(i, n int) int {
	if n <= 0 {
		return 0
	}
	p := int(math.Round((float64(i) + 0.5) / float64(n) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// Tracker owns the in-memory job table. All mutations go through it so
// progress stays monotonic and terminal jobs stay terminal.
type Tracker struct {
	mu       sync.RWMutex
	pubMu    sync.Mutex
	jobs     map[string]*domain.Job
	sink     EventSink
	store    Store
	progress ProgressConfig
	now      func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithStore attaches a durable mirror for job state.
func WithStore(store Store) Option {
	return func(t *Tracker) { t.store = store }
}

// WithProgressConfig overrides the submitted-progress cosmetics.
func WithProgressConfig(cfg ProgressConfig) Option {
	return func(t *Tracker) { t.progress = cfg }
}

// NewTracker constructs a Tracker publishing to sink.
func NewTracker(sink EventSink, opts ...Option) *Tracker {
	t := &Tracker{
		jobs:     make(map[string]*domain.Job),
		sink:     sink,
		progress: DefaultProgressConfig,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Create registers a new job in the started state and announces it with the
// configured submitted percentage.
func (t *Tracker) Create(ctx context.Context, assetType domain.AssetType, prompt string) *domain.Job {
	now := t.now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		AssetType: assetType,
		Prompt:    prompt,
		Status:    domain.JobStatusStarted,
		Progress:  t.progress.SubmittedPercent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	snapshot := *job

	t.publish(ctx, snapshot, Event{
		Message:          "job submitted",
		EstimatedSeconds: t.progress.EstimatedSeconds,
	})
	return &snapshot
}

// Advance moves a running job forward. Progress never decreases: a caller
// reporting a lower value keeps the current one. Advancing a terminal job
// returns ErrJobTerminal.
func (t *Tracker) Advance(ctx context.Context, jobID string, progress int, message string, step, totalSteps int) error {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok {
		t.mu.Unlock()
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		t.mu.Unlock()
		return domain.ErrJobTerminal
	}
	job.Status = domain.JobStatusProcessing
	if progress > job.Progress {
		if progress > 100 {
			progress = 100
		}
		job.Progress = progress
	}
	job.UpdatedAt = t.now().UTC()
	snapshot := *job

	t.publish(ctx, snapshot, Event{
		Message:     message,
		CurrentStep: step,
		TotalSteps:  totalSteps,
	})
	return nil
}

// Complete marks a job finished with its result payload.
func (t *Tracker) Complete(ctx context.Context, jobID string, result []byte) error {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok {
		t.mu.Unlock()
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		t.mu.Unlock()
		return domain.ErrJobTerminal
	}
	job.Status = domain.JobStatusCompleted
	job.Progress = 100
	job.ResultJSON = result
	job.UpdatedAt = t.now().UTC()
	snapshot := *job

	t.publish(ctx, snapshot, Event{Message: "job completed"})
	return nil
}

// Fail marks a job failed. Progress is left where it was so clients can see
// how far the job got.
func (t *Tracker) Fail(ctx context.Context, jobID string, cause error) error {
	t.mu.Lock()
	job, ok := t.jobs[jobID]
	if !ok {
		t.mu.Unlock()
		return domain.ErrNotFound
	}
	if job.Status.Terminal() {
		t.mu.Unlock()
		return domain.ErrJobTerminal
	}
	job.Status = domain.JobStatusFailed
	if cause != nil {
		job.ErrorMessage = cause.Error()
	}
	job.UpdatedAt = t.now().UTC()
	snapshot := *job

	t.publish(ctx, snapshot, Event{Message: snapshot.ErrorMessage})
	return nil
}

// Get returns a copy of the job. IDs missing from memory fall through to the
// durable store when one is attached, so mirrored jobs resolve after a
// restart.
func (t *Tracker) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	t.mu.RLock()
	if job, ok := t.jobs[jobID]; ok {
		snapshot := *job
		t.mu.RUnlock()
		return &snapshot, nil
	}
	t.mu.RUnlock()

	if t.store == nil {
		return nil, domain.ErrNotFound
	}
	return t.store.Load(ctx, jobID)
}

// publish takes over mu from the caller: it acquires the publish lock before
// releasing mu, which keeps store writes and sink events in snapshot order
// when several goroutines drive the same job. Delivery itself runs outside
// mu so a slow sink never blocks state changes on other jobs.
func (t *Tracker) publish(ctx context.Context, job domain.Job, extra Event) {
	t.pubMu.Lock()
	t.mu.Unlock()
	defer t.pubMu.Unlock()

	if t.store != nil {
		_ = t.store.Upsert(ctx, job)
	}
	if t.sink == nil {
		return
	}
	ev := extra
	ev.JobID = job.ID
	ev.Status = string(job.Status)
	ev.Progress = job.Progress
	ev.AssetType = string(job.AssetType)
	ev.Prompt = job.Prompt
	ev.Result = job.ResultJSON
	ev.Timestamp = job.UpdatedAt
	t.sink.Publish(ctx, ev)
}
