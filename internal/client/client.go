package client

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/reelsync/reelsync/internal/client/config"
	"github.com/reelsync/reelsync/internal/kv"
	"github.com/reelsync/reelsync/internal/reelsdk"
	"github.com/reelsync/reelsync/internal/upload"
	"github.com/reelsync/reelsync/internal/utils"
)

const stateDBName = "reelsync.db"

// Client wires the SDK, the durable state store and the upload pipeline.
type Client struct {
	config  *config.Config
	sdk     *reelsdk.SDK
	kv      kv.Store
	uploads *upload.Manager
}

func New(cfg *config.Config) (*Client, error) {
	if err := utils.EnsureDir(cfg.StateDir); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	kvs, err := kv.OpenSqlite(filepath.Join(cfg.StateDir, stateDBName))
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	sdk, err := reelsdk.New(cfg.ServerURL)
	if err != nil {
		kvs.Close()
		return nil, fmt.Errorf("create sdk: %w", err)
	}

	return &Client{
		config:  cfg,
		sdk:     sdk,
		kv:      kvs,
		uploads: upload.NewManager(sdk.Files, upload.NewStore(kvs)),
	}, nil
}

func (c *Client) Start(ctx context.Context) error {
	slog.Info("client start", "server", c.config.ServerURL, "state", c.config.StateDir)

	if err := c.sdk.Login(c.config.SessionToken); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := c.uploads.Start(ctx); err != nil {
		return fmt.Errorf("start uploads: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	c.uploads.Stop()
	c.sdk.Close()
	if err := c.kv.Close(); err != nil {
		slog.Warn("close state store", "error", err)
	}
	slog.Info("client stop")
}

// Uploads exposes the upload pipeline.
func (c *Client) Uploads() *upload.Manager {
	return c.uploads
}

// UploadAndWait enqueues paths into a project and blocks until every
// transfer and registration has settled or ctx is cancelled. The returned
// tasks are the ones that did not finish cleanly.
func (c *Client) UploadAndWait(ctx context.Context, paths []string, projectID string, opts *upload.EnqueueOptions) ([]upload.Task, error) {
	if _, err := c.uploads.EnqueueFiles(paths, projectID, opts); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return c.uploads.Uploads(), ctx.Err()
		case <-ticker.C:
			if c.uploads.Idle() {
				var failed []upload.Task
				for _, task := range c.uploads.Uploads() {
					if task.Errored {
						failed = append(failed, task)
					}
				}
				return failed, nil
			}
		}
	}
}
