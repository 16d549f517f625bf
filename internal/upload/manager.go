package upload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/reelsync/reelsync/internal/reelsdk"
	"github.com/reelsync/reelsync/internal/utils"
)

// API is the full metadata API surface the pipeline needs.
type API interface {
	MetadataAPI
	Registrar
}

// EnqueueOptions carry the optional destination of enqueued files.
type EnqueueOptions struct {
	FolderID        string
	StackID         string
	StackWithFileID string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHTTPClient sets the http.Client used for presigned PUTs.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.exec = NewExecutor(client)
	}
}

// WithRegisteredSink sets the callback invoked with authoritative records
// after each successful registration.
func WithRegisteredSink(sink RegisteredSink) ManagerOption {
	return func(m *Manager) {
		m.sink = sink
	}
}

// Manager is the pipeline facade. Each enqueued file gets its own
// coordinator goroutine (cross-file transfers are unbounded-concurrent);
// registration is serialized per scope by the submission loop.
type Manager struct {
	store  *Store
	exec   *Executor
	coord  *Coordinator
	submit *SubmissionLoop
	sink   RegisteredSink

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	wg       sync.WaitGroup
}

func NewManager(api API, store *Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		exec:     NewExecutor(nil),
		inflight: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.coord = NewCoordinator(api, m.exec)
	m.submit = NewSubmissionLoop(store, api, m.sink)
	return m
}

// Start restores persisted upload state. Uploads that were in flight when
// the previous process died are shown errored, never resumed.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)
	if err := m.store.Restore(m.ctx); err != nil {
		return fmt.Errorf("restore upload state: %w", err)
	}
	return nil
}

// Stop cancels all in-flight work and waits for it to settle.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.submit.Wait()
}

// EnqueueFiles begins the pipeline for each path. Returns the minted task
// ids in input order.
func (m *Manager) EnqueueFiles(paths []string, scopeID string, opts *EnqueueOptions) ([]string, error) {
	if opts == nil {
		opts = &EnqueueOptions{}
	}

	ids := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return ids, fmt.Errorf("stat %s: %w", path, err)
		}

		task := &Task{
			ID:        uuid.NewString(),
			Name:      filepath.Base(path),
			MimeType:  utils.DetectContentType(path),
			SizeBytes: info.Size(),
			ScopeID:   scopeID,
			FolderID:  opts.FolderID,
			LocalPath: path,
			CreatedAt: time.Now(),
		}
		if err := m.store.AddTask(m.ctx, task); err != nil {
			return ids, err
		}

		taskCtx, cancelTask := context.WithCancel(m.ctx)
		m.mu.Lock()
		m.inflight[task.ID] = cancelTask
		m.mu.Unlock()

		m.wg.Add(1)
		go m.runUpload(taskCtx, *task, opts)

		slog.Info("upload enqueued",
			"task", task.ID,
			"name", task.Name,
			"size", humanize.IBytes(uint64(info.Size())),
			"project", scopeID)
		ids = append(ids, task.ID)
	}
	return ids, nil
}

// Cancel aborts a task. Synchronous: the task is errored before this
// returns, regardless of the network unwinding. No effect on tasks already
// in a terminal state.
func (m *Manager) Cancel(taskID string) {
	m.mu.Lock()
	cancelTask := m.inflight[taskID]
	m.mu.Unlock()

	if cancelTask != nil {
		cancelTask()
	}
	if m.store.MarkError(context.Background(), taskID, KindUserCancelled) {
		slog.Info("upload cancelled", "task", taskID)
	}
}

// PruneFinished clears errored and finished tasks from the visible list.
func (m *Manager) PruneFinished() {
	m.store.PruneTerminal(m.ctx)
}

// Uploads returns a snapshot of the visible upload list, newest first.
func (m *Manager) Uploads() []Task {
	return m.store.Snapshot()
}

// Idle reports whether no transfer or registration work remains.
func (m *Manager) Idle() bool {
	m.mu.Lock()
	transfers := len(m.inflight)
	m.mu.Unlock()
	if transfers > 0 {
		return false
	}

	for _, task := range m.store.Snapshot() {
		if !task.Errored && task.Progress < 100 {
			return false
		}
		if task.TransportComplete && !task.Errored {
			return false // registration still pending
		}
	}
	return true
}

func (m *Manager) runUpload(ctx context.Context, task Task, opts *EnqueueOptions) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.inflight, task.ID)
		m.mu.Unlock()
	}()

	res, err := m.coord.Upload(ctx, &UploadSpec{
		FilePath:    task.LocalPath,
		FileName:    task.Name,
		ContentType: task.MimeType,
		ScopeID:     task.ScopeID,
		SizeBytes:   task.SizeBytes,
	}, func(percent int) {
		m.store.SetProgress(m.ctx, task.ID, percent)
	})
	if err != nil {
		kind := kindOf(err)
		if m.store.MarkError(m.ctx, task.ID, kind) {
			if kind == KindUserCancelled {
				slog.Info("upload cancelled", "task", task.ID, "name", task.Name)
			} else {
				slog.Error("upload failed", "task", task.ID, "name", task.Name, "error", err)
			}
		}
		return
	}

	if !m.store.MarkTransportComplete(m.ctx, task.ID) {
		// cancelled while the final ack was in flight; bytes stay orphaned
		return
	}

	slog.Debug("transport complete", "task", task.ID, "key", res.StorageKey)
	m.store.EnqueueRegistration(RegistrationEntry{
		TaskID:  task.ID,
		ScopeID: task.ScopeID,
		Registration: &reelsdk.FileRegistration{
			StorageKey:        res.StorageKey,
			ProvisionalFileID: res.ProvisionalFileID,
			ContentType:       task.MimeType,
			OriginalName:      task.Name,
			SizeBytes:         task.SizeBytes,
			FolderID:          opts.FolderID,
			StackID:           opts.StackID,
			StackWithFileID:   opts.StackWithFileID,
		},
	})
	m.submit.Kick(m.ctx, task.ScopeID)
}
