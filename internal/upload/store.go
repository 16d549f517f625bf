package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reelsync/reelsync/internal/kv"
	"github.com/reelsync/reelsync/internal/queue"
)

const uploadsKey = "uploads"

// Store holds the visible upload list and the per-scope registration queues.
//
// All operations are synchronous and serialized by a single mutex. The
// upload list is persisted as a full-replace snapshot on every mutation that
// must survive a restart; tasks are trimmed from the snapshot the moment
// they finish successfully. Registration queues are transient and
// deliberately lost on restart.
type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	tasks  []*Task // newest first
	queues map[string]*queue.Queue[RegistrationEntry]
}

func NewStore(kvs kv.Store) *Store {
	return &Store{
		kv:     kvs,
		queues: make(map[string]*queue.Queue[RegistrationEntry]),
	}
}

// Restore loads the persisted upload list. Tasks that were mid-pipeline when
// the process died cannot be resumed (session state is never persisted), so
// they come back errored.
func (s *Store) Restore(ctx context.Context) error {
	data, ok, err := s.kv.Get(ctx, uploadsKey)
	if err != nil {
		return fmt.Errorf("restore uploads: %w", err)
	}
	if !ok {
		return nil
	}

	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("decode uploads: %w", err)
	}

	abandoned := 0
	for _, task := range tasks {
		if !task.Errored {
			task.Errored = true
			task.ErrorKind = KindTransport
			task.Progress = 100
			abandoned++
		}
	}
	if abandoned > 0 {
		slog.Warn("abandoned unfinished uploads from previous run", "count", abandoned)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	return s.persistLocked(ctx)
}

// AddTask prepends a task to the visible list. Task ids must be unique.
func (s *Store) AddTask(ctx context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(task.ID) != nil {
		return ErrDuplicateTask
	}

	cp := *task
	s.tasks = append([]*Task{&cp}, s.tasks...)
	return s.persistLocked(ctx)
}

// SetProgress updates a task's progress unless it is already errored.
// Regressions are ignored so progress stays monotone. Only full completion
// is persisted; intermediate progress does not survive a restart.
func (s *Store) SetProgress(ctx context.Context, id string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(id)
	if task == nil || task.Errored {
		return
	}
	if percent < task.Progress {
		return
	}
	if percent > 100 {
		percent = 100
	}

	task.Progress = percent
	if percent == 100 {
		if err := s.persistLocked(ctx); err != nil {
			slog.Warn("persist uploads", "error", err)
		}
	}
}

// MarkTransportComplete flags a task as fully stored, registration pending.
// Returns false when the task is gone or already errored.
func (s *Store) MarkTransportComplete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(id)
	if task == nil || task.Errored {
		return false
	}

	task.TransportComplete = true
	if err := s.persistLocked(ctx); err != nil {
		slog.Warn("persist uploads", "error", err)
	}
	return true
}

// MarkError moves a task to its terminal error state, forcing progress to
// 100. Returns false if the task is gone or already errored, which makes
// racing terminal transitions (cancel vs. late failure) collapse to one.
func (s *Store) MarkError(ctx context.Context, id string, kind ErrKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(id)
	if task == nil || task.Errored {
		return false
	}

	task.Errored = true
	task.ErrorKind = kind
	task.Progress = 100
	if err := s.persistLocked(ctx); err != nil {
		slog.Warn("persist uploads", "error", err)
	}
	return true
}

// Complete removes a successfully registered task from the list and from
// the persisted snapshot. Returns false if the task is gone or errored
// (e.g. cancelled while the registration call was in flight).
func (s *Store) Complete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(id)
	if task == nil || task.Errored {
		return false
	}

	s.removeLocked(id)
	if err := s.persistLocked(ctx); err != nil {
		slog.Warn("persist uploads", "error", err)
	}
	return true
}

// Remove drops a task from the visible list (user dismissal).
func (s *Store) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(id) == nil {
		return
	}
	s.removeLocked(id)
	if err := s.persistLocked(ctx); err != nil {
		slog.Warn("persist uploads", "error", err)
	}
}

// PruneTerminal drops every errored or fully-progressed task.
func (s *Store) PruneTerminal(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if task.Errored || task.Progress >= 100 {
			continue
		}
		kept = append(kept, task)
	}
	s.tasks = kept
	if err := s.persistLocked(ctx); err != nil {
		slog.Warn("persist uploads", "error", err)
	}
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := s.findLocked(id)
	if task == nil {
		return Task{}, false
	}
	return *task, true
}

// Snapshot returns a copy of the visible upload list, newest first.
func (s *Store) Snapshot() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	return out
}

// EnqueueRegistration appends an entry to its scope's FIFO queue.
func (s *Store) EnqueueRegistration(entry RegistrationEntry) {
	s.scopeQueue(entry.ScopeID).Push(entry)
}

// DequeueRegistration pops the head entry for a scope.
func (s *Store) DequeueRegistration(scopeID string) (RegistrationEntry, bool) {
	return s.scopeQueue(scopeID).Pop()
}

// RegistrationBacklog reports how many entries are queued for a scope.
func (s *Store) RegistrationBacklog(scopeID string) int {
	return s.scopeQueue(scopeID).Len()
}

func (s *Store) scopeQueue(scopeID string) *queue.Queue[RegistrationEntry] {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.queues[scopeID]
	if !ok {
		q = queue.New[RegistrationEntry]()
		s.queues[scopeID] = q
	}
	return q
}

func (s *Store) findLocked(id string) *Task {
	for _, task := range s.tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}

func (s *Store) removeLocked(id string) {
	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if task.ID == id {
			continue
		}
		kept = append(kept, task)
	}
	s.tasks = kept
}

// persistLocked writes the full snapshot, skipping tasks that finished
// successfully (they are pruned from durable storage immediately).
func (s *Store) persistLocked(ctx context.Context) error {
	persistable := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if task.Progress >= 100 && !task.Errored {
			continue
		}
		persistable = append(persistable, task)
	}

	data, err := json.Marshal(persistable)
	if err != nil {
		return fmt.Errorf("encode uploads: %w", err)
	}
	return s.kv.Set(ctx, uploadsKey, data)
}
