package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reelsync/reelsync/internal/reelsdk"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements the metadata API against an httptest storage backend,
// recording every call it serves.
type fakeAPI struct {
	storageURL string

	mu             sync.Mutex
	calls          []string
	partRequests   []int
	completedParts []*reelsdk.CompletedPart
	registered     []*reelsdk.FileRegistration
	registerErr    map[string]error // keyed by OriginalName
	registerDelay  time.Duration

	registerActive  int
	registerMaxSeen int
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) RequestDirectUploadURL(ctx context.Context, params *reelsdk.DirectUploadRequest) (*reelsdk.DirectUploadGrant, error) {
	f.record("direct-url")
	return &reelsdk.DirectUploadGrant{
		URL:               f.storageURL + "/direct",
		StorageKey:        "sk-" + params.FileName,
		ProvisionalFileID: "pf-" + params.FileName,
	}, nil
}

func (f *fakeAPI) StartMultipartSession(ctx context.Context, params *reelsdk.MultipartSessionRequest) (*reelsdk.MultipartSession, error) {
	f.record("session")
	return &reelsdk.MultipartSession{
		UploadID:          "mpu-1",
		StorageKey:        "sk-" + params.FileName,
		ProvisionalFileID: "pf-" + params.FileName,
	}, nil
}

func (f *fakeAPI) RequestChunkUploadURL(ctx context.Context, storageKey, uploadID string, partNumber int) (string, error) {
	f.record(fmt.Sprintf("part-url %d", partNumber))
	f.mu.Lock()
	f.partRequests = append(f.partRequests, partNumber)
	f.mu.Unlock()
	return fmt.Sprintf("%s/part-%d", f.storageURL, partNumber), nil
}

func (f *fakeAPI) CompleteMultipartSession(ctx context.Context, storageKey, uploadID string, parts []*reelsdk.CompletedPart) error {
	f.record("complete")
	f.mu.Lock()
	f.completedParts = append([]*reelsdk.CompletedPart(nil), parts...)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) RegisterUploadedFile(ctx context.Context, projectID string, file *reelsdk.FileRegistration) (*reelsdk.RegisterResponse, error) {
	f.record("register " + file.OriginalName)

	f.mu.Lock()
	f.registerActive++
	if f.registerActive > f.registerMaxSeen {
		f.registerMaxSeen = f.registerActive
	}
	delay := f.registerDelay
	failure := f.registerErr[file.OriginalName]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.registerActive--
	if failure == nil {
		f.registered = append(f.registered, file)
	}
	count := len(f.registered)
	f.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	return &reelsdk.RegisterResponse{
		Project: &reelsdk.ProjectRecord{
			ID:        projectID,
			Name:      "project-" + projectID,
			FileCount: count,
			UpdatedAt: time.Now(),
		},
	}, nil
}

// newStorageServer serves presigned PUTs, acknowledging each with an ETag
// derived from the request path.
func newStorageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", fmt.Sprintf("%q", "etag-"+strings.TrimPrefix(r.URL.Path, "/")))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeTempFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}
