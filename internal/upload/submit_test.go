package upload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/reelsync/reelsync/internal/kv"
	"github.com/reelsync/reelsync/internal/reelsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueueReady(t *testing.T, store *Store, id, scope string) {
	t.Helper()
	ctx := context.Background()
	task := newTask(id, scope)
	require.NoError(t, store.AddTask(ctx, task))
	store.SetProgress(ctx, id, 100)
	require.True(t, store.MarkTransportComplete(ctx, id))
	store.EnqueueRegistration(RegistrationEntry{
		TaskID:  id,
		ScopeID: scope,
		Registration: &reelsdk.FileRegistration{
			StorageKey:        "sk-" + id,
			ProvisionalFileID: "pf-" + id,
			OriginalName:      task.Name,
			SizeBytes:         task.SizeBytes,
		},
	})
}

func TestSubmissionLoop_SingleFlightFIFO(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemoryStore())
	api := &fakeAPI{registerDelay: 10 * time.Millisecond}
	loop := NewSubmissionLoop(store, api, nil)

	for _, id := range []string{"a", "b", "c"} {
		enqueueReady(t, store, id, "p1")
		loop.Kick(ctx, "p1")
	}
	loop.Wait()

	require.Len(t, api.registered, 3)
	names := make([]string, 0, 3)
	for _, reg := range api.registered {
		names = append(names, reg.OriginalName)
	}
	assert.Equal(t, []string{"a.mp4", "b.mp4", "c.mp4"}, names, "queue order is preserved")
	assert.Equal(t, 1, api.registerMaxSeen, "at most one registration in flight per scope")

	assert.Empty(t, store.Snapshot(), "registered tasks leave the visible list")
	assert.Equal(t, 0, store.RegistrationBacklog("p1"))
}

func TestSubmissionLoop_FailureIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemoryStore())
	api := &fakeAPI{registerErr: map[string]error{"a.mp4": errors.New("project not found")}}
	loop := NewSubmissionLoop(store, api, nil)

	enqueueReady(t, store, "a", "p1")
	loop.Kick(ctx, "p1")
	enqueueReady(t, store, "b", "p1")
	loop.Kick(ctx, "p1")
	loop.Wait()

	failed, ok := store.Get("a")
	require.True(t, ok)
	assert.True(t, failed.Errored)
	assert.Equal(t, KindRegistration, failed.ErrorKind)

	_, ok = store.Get("b")
	assert.False(t, ok, "a failed registration never blocks the next entry")
	require.Len(t, api.registered, 1)
	assert.Equal(t, "b.mp4", api.registered[0].OriginalName)
}

func TestSubmissionLoop_SkipsCancelledEntries(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemoryStore())
	api := &fakeAPI{}
	loop := NewSubmissionLoop(store, api, nil)

	enqueueReady(t, store, "a", "p1")
	require.True(t, store.MarkError(ctx, "a", KindUserCancelled))

	loop.Kick(ctx, "p1")
	loop.Wait()

	assert.Empty(t, api.registered, "cancelled after transport means no registration call")
	task, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, KindUserCancelled, task.ErrorKind)
}

func TestSubmissionLoop_SinkReceivesRecords(t *testing.T) {
	ctx := context.Background()
	store := NewStore(kv.NewMemoryStore())
	api := &fakeAPI{}

	var mu sync.Mutex
	var projects []string
	loop := NewSubmissionLoop(store, api, func(entry RegistrationEntry, res *reelsdk.RegisterResponse) {
		mu.Lock()
		projects = append(projects, res.Project.ID)
		mu.Unlock()
	})

	enqueueReady(t, store, "a", "p1")
	loop.Kick(ctx, "p1")
	loop.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"p1"}, projects)
}
