package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/reelsync/reelsync/internal/reelsdk"
)

// MetadataAPI is the subset of the metadata API the coordinator depends on.
type MetadataAPI interface {
	RequestDirectUploadURL(ctx context.Context, params *reelsdk.DirectUploadRequest) (*reelsdk.DirectUploadGrant, error)
	StartMultipartSession(ctx context.Context, params *reelsdk.MultipartSessionRequest) (*reelsdk.MultipartSession, error)
	RequestChunkUploadURL(ctx context.Context, storageKey, uploadID string, partNumber int) (string, error)
	CompleteMultipartSession(ctx context.Context, storageKey, uploadID string, parts []*reelsdk.CompletedPart) error
}

// UploadSpec describes one file to transfer.
type UploadSpec struct {
	FilePath    string
	FileName    string
	ContentType string
	ScopeID     string
	SizeBytes   int64
}

// UploadResult identifies the stored bytes, ready for registration.
type UploadResult struct {
	StorageKey        string
	ProvisionalFileID string
}

// Coordinator drives the full byte-transfer lifecycle of one file: strategy
// selection, presigned URL negotiation, sequential chunk transfers, progress
// aggregation, and multipart completion.
//
// Upload blocks until the transfer is terminal and returns exactly one
// outcome. Cancel by cancelling ctx; it is honored between chunks before any
// further network call, and aborts an in-flight PUT.
type Coordinator struct {
	api  MetadataAPI
	exec *Executor
}

func NewCoordinator(api MetadataAPI, exec *Executor) *Coordinator {
	if exec == nil {
		exec = NewExecutor(nil)
	}
	return &Coordinator{api: api, exec: exec}
}

func (c *Coordinator) Upload(ctx context.Context, spec *UploadSpec, onProgress ProgressFunc) (*UploadResult, error) {
	plan := PlanTransfer(spec.SizeBytes)
	slog.Debug("upload plan", "name", spec.FileName, "strategy", plan.Strategy, "chunks", len(plan.Chunks))

	if plan.Strategy == StrategyDirect {
		return c.uploadDirect(ctx, spec, onProgress)
	}
	return c.uploadChunked(ctx, spec, plan, onProgress)
}

func (c *Coordinator) uploadDirect(ctx context.Context, spec *UploadSpec, onProgress ProgressFunc) (*UploadResult, error) {
	grant, err := c.api.RequestDirectUploadURL(ctx, &reelsdk.DirectUploadRequest{
		FileName:    spec.FileName,
		ContentType: spec.ContentType,
		ProjectID:   spec.ScopeID,
	})
	if err != nil {
		return nil, fmt.Errorf("direct upload url: %w", err)
	}

	file, err := os.Open(spec.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if _, err := c.exec.Put(ctx, grant.URL, spec.ContentType, file, spec.SizeBytes, onProgress); err != nil {
		return nil, err
	}

	return &UploadResult{
		StorageKey:        grant.StorageKey,
		ProvisionalFileID: grant.ProvisionalFileID,
	}, nil
}

func (c *Coordinator) uploadChunked(ctx context.Context, spec *UploadSpec, plan Plan, onProgress ProgressFunc) (*UploadResult, error) {
	session, err := c.api.StartMultipartSession(ctx, &reelsdk.MultipartSessionRequest{
		FileName:    spec.FileName,
		ContentType: spec.ContentType,
		ProjectID:   spec.ScopeID,
	})
	if err != nil {
		return nil, fmt.Errorf("multipart session: %w", err)
	}

	file, err := os.Open(spec.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	totalChunks := len(plan.Chunks)
	parts := make([]*reelsdk.CompletedPart, 0, totalChunks)

	// Parts go up strictly in order, one at a time. Only one chunk is
	// resident per file and the completion call gets its acknowledgments
	// already ordered.
	for i, chunk := range plan.Chunks {
		// Cancellation requested between chunks takes effect here,
		// before any network call for this part.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		url, err := c.api.RequestChunkUploadURL(ctx, session.StorageKey, session.UploadID, chunk.Number)
		if err != nil {
			return nil, fmt.Errorf("chunk %d url: %w", chunk.Number, err)
		}

		section := io.NewSectionReader(file, chunk.Offset, chunk.Size)
		completed := i
		etag, err := c.exec.Put(ctx, url, spec.ContentType, section, chunk.Size, func(chunkPercent int) {
			if onProgress != nil {
				onProgress(wholeFilePercent(completed, chunkPercent, totalChunks))
			}
		})
		if err != nil {
			return nil, fmt.Errorf("upload chunk %d: %w", chunk.Number, err)
		}

		parts = append(parts, &reelsdk.CompletedPart{
			PartNumber: chunk.Number,
			ETag:       etag,
		})
	}

	if err := c.api.CompleteMultipartSession(ctx, session.StorageKey, session.UploadID, parts); err != nil {
		return nil, fmt.Errorf("multipart complete: %w", err)
	}

	if onProgress != nil {
		onProgress(100)
	}

	return &UploadResult{
		StorageKey:        session.StorageKey,
		ProvisionalFileID: session.ProvisionalFileID,
	}, nil
}

// wholeFilePercent folds one chunk's progress into whole-file progress.
func wholeFilePercent(completedChunks, chunkPercent, totalChunks int) int {
	return int(math.Round(float64(completedChunks*100+chunkPercent) / float64(totalChunks)))
}
