package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/managed/component"
)

// Journal records lifecycle events in order. Safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Record appends an event.
func (j *Journal) Record(event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, event)
}

// Entries returns a copy of the recorded events.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Reset drops every event.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = nil
}

// Resource is a managed instance implementing every lifecycle interface the
// container knows. Initialize and Stop record "init <name>" and
// "stop <name>" into the journal.
type Resource struct {
	Name    string
	Journal *Journal

	InitErr error
	StopErr error
	Status  component.HealthStatus
	Message string

	mu          sync.Mutex
	initialized bool
	stopped     bool
}

// NewResource creates a healthy Resource.
func NewResource(name string, j *Journal) *Resource {
	return &Resource{Name: name, Journal: j, Status: component.StatusHealthy}
}

// Initialize implements component.Initializer.
func (r *Resource) Initialize(ctx context.Context) error {
	r.record("init")
	if r.InitErr != nil {
		return r.InitErr
	}
	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	return nil
}

// Stop implements component.Stopper.
func (r *Resource) Stop(ctx context.Context) error {
	r.record("stop")
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	return r.StopErr
}

// Health implements component.HealthChecker.
func (r *Resource) Health(ctx context.Context) component.Health {
	return component.Health{Name: r.Name, Status: r.Status, Message: r.Message}
}

// Describe implements component.Describable.
func (r *Resource) Describe() component.Description {
	return component.Description{Name: r.Name, Type: "test-resource"}
}

// Initialized reports whether Initialize succeeded.
func (r *Resource) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Stopped reports whether Stop was called.
func (r *Resource) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *Resource) record(event string) {
	if r.Journal != nil {
		r.Journal.Record(event + " " + r.Name)
	}
}
