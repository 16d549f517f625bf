package upload

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_UploadDirect(t *testing.T) {
	storage := newStorageServer(t)
	api := &fakeAPI{storageURL: storage.URL}
	coord := NewCoordinator(api, NewExecutor(nil))

	size := int64(5 * 1024 * 1024)
	path := writeTempFile(t, "clip.mp4", size)

	var percents []int
	res, err := coord.Upload(context.Background(), &UploadSpec{
		FilePath:    path,
		FileName:    "clip.mp4",
		ContentType: "video/mp4",
		ScopeID:     "proj-1",
		SizeBytes:   size,
	}, func(p int) { percents = append(percents, p) })

	require.NoError(t, err)
	assert.Equal(t, "sk-clip.mp4", res.StorageKey)
	assert.Equal(t, "pf-clip.mp4", res.ProvisionalFileID)

	assert.Equal(t, []string{"direct-url"}, api.callLog(), "no multipart traffic below the threshold")
	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestCoordinator_UploadChunked(t *testing.T) {
	storage := newStorageServer(t)
	api := &fakeAPI{storageURL: storage.URL}
	coord := NewCoordinator(api, NewExecutor(nil))

	size := int64(45 * 1024 * 1024)
	path := writeTempFile(t, "raw.mov", size)

	var percents []int
	res, err := coord.Upload(context.Background(), &UploadSpec{
		FilePath:    path,
		FileName:    "raw.mov",
		ContentType: "video/quicktime",
		ScopeID:     "proj-1",
		SizeBytes:   size,
	}, func(p int) { percents = append(percents, p) })

	require.NoError(t, err)
	assert.Equal(t, "sk-raw.mov", res.StorageKey)
	assert.Equal(t, "pf-raw.mov", res.ProvisionalFileID)

	assert.Equal(t, []string{"session", "part-url 1", "part-url 2", "part-url 3", "complete"},
		api.callLog(), "parts are requested strictly in order, one at a time")
	assert.Equal(t, []int{1, 2, 3}, api.partRequests)

	require.Len(t, api.completedParts, 3)
	for i, part := range api.completedParts {
		assert.Equal(t, i+1, part.PartNumber)
	}
	assert.Equal(t, "etag-part-1", api.completedParts[0].ETag)
	assert.Equal(t, "etag-part-3", api.completedParts[2].ETag)

	require.NotEmpty(t, percents)
	last := 0
	for _, p := range percents {
		assert.GreaterOrEqual(t, p, last, "aggregated progress must be non-decreasing")
		last = p
	}
	assert.Equal(t, 100, last)
}

func TestCoordinator_CancelMidChunked(t *testing.T) {
	storage := newStorageServer(t)
	api := &fakeAPI{storageURL: storage.URL}
	coord := NewCoordinator(api, NewExecutor(nil))

	size := int64(45 * 1024 * 1024)
	path := writeTempFile(t, "raw.mov", size)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel as soon as the first chunk reports progress. Whether that lands
	// mid-transfer or right after the chunk's ack, no further part may be
	// negotiated and the session must never complete.
	var once sync.Once
	_, err := coord.Upload(ctx, &UploadSpec{
		FilePath:    path,
		FileName:    "raw.mov",
		ContentType: "video/quicktime",
		ScopeID:     "proj-1",
		SizeBytes:   size,
	}, func(p int) {
		if p >= 33 {
			once.Do(cancel)
		}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NotContains(t, api.callLog(), "part-url 2", "no chunk beyond the cancelled one")
	assert.NotContains(t, api.callLog(), "complete", "an aborted session is never completed")
}
