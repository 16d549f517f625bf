package upload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/reelsync/reelsync/internal/reelsdk"
)

// Registrar is the registration operation of the metadata API.
type Registrar interface {
	RegisterUploadedFile(ctx context.Context, projectID string, file *reelsdk.FileRegistration) (*reelsdk.RegisterResponse, error)
}

// RegisteredSink receives the authoritative records returned by a successful
// registration, so callers can refresh their read caches.
type RegisteredSink func(entry RegistrationEntry, res *reelsdk.RegisterResponse)

// SubmissionLoop drains the store's registration queues, one goroutine per
// scope. A scope's drainer owns its queue exclusively while it runs, which
// makes "at most one registration call in flight per scope" structural: the
// server-side attach operation is not safely concurrent per project.
//
// A failed entry marks its task errored and the drainer moves on; one bad
// registration never blocks the rest of the queue.
type SubmissionLoop struct {
	store *Store
	api   Registrar
	sink  RegisteredSink

	mu     sync.Mutex
	active map[string]bool
	wg     sync.WaitGroup
}

func NewSubmissionLoop(store *Store, api Registrar, sink RegisteredSink) *SubmissionLoop {
	return &SubmissionLoop{
		store:  store,
		api:    api,
		sink:   sink,
		active: make(map[string]bool),
	}
}

// Kick ensures a drainer is running for the scope. Call after enqueueing.
func (l *SubmissionLoop) Kick(ctx context.Context, scopeID string) {
	l.mu.Lock()
	if l.active[scopeID] {
		l.mu.Unlock()
		return
	}
	l.active[scopeID] = true
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.drain(ctx, scopeID)
	}()
}

// Wait blocks until all drainers have exited.
func (l *SubmissionLoop) Wait() {
	l.wg.Wait()
}

func (l *SubmissionLoop) drain(ctx context.Context, scopeID string) {
	for {
		if ctx.Err() != nil {
			l.mu.Lock()
			delete(l.active, scopeID)
			l.mu.Unlock()
			return
		}

		entry, ok := l.store.DequeueRegistration(scopeID)
		if !ok {
			// Exit only if the queue is still empty while we hold the
			// active flag; Kick always follows an enqueue, so a racing
			// producer either sees us active or finds the flag cleared
			// and starts a fresh drainer.
			l.mu.Lock()
			if l.store.RegistrationBacklog(scopeID) == 0 {
				delete(l.active, scopeID)
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			continue
		}

		l.submitOne(ctx, entry)
	}
}

func (l *SubmissionLoop) submitOne(ctx context.Context, entry RegistrationEntry) {
	task, ok := l.store.Get(entry.TaskID)
	if !ok || task.Errored {
		// cancelled or dismissed after transport completion; the stored
		// bytes stay orphaned
		slog.Debug("registration skipped", "task", entry.TaskID, "project", entry.ScopeID)
		return
	}

	res, err := l.api.RegisterUploadedFile(ctx, entry.ScopeID, entry.Registration)
	if err != nil {
		slog.Error("file registration failed", "task", entry.TaskID, "project", entry.ScopeID, "error", err)
		l.store.MarkError(ctx, entry.TaskID, KindRegistration)
		return
	}

	l.store.Complete(ctx, entry.TaskID)
	slog.Info("file registered", "task", entry.TaskID, "project", res.Project.ID, "fileCount", res.Project.FileCount)

	if l.sink != nil {
		l.sink(entry, res)
	}
}
