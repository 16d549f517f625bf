package upload

import (
	"time"

	"github.com/reelsync/reelsync/internal/reelsdk"
)

// Task represents one file moving through the upload pipeline.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`

	// Progress is a 0-100 percent, monotonically non-decreasing while the
	// task is not errored. Forced to 100 on error so callers can stop
	// progress indicators; Errored distinguishes the two.
	Progress int `json:"progress"`

	ScopeID   string `json:"scopeId"`
	FolderID  string `json:"folderId,omitempty"`
	LocalPath string `json:"localPath,omitempty"`

	// TransportComplete means the raw bytes are fully stored and only the
	// registration call is pending.
	TransportComplete bool `json:"transportComplete"`

	Errored   bool      `json:"errored"`
	ErrorKind ErrKind   `json:"errorKind,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegistrationEntry pairs a transport-complete task with its finalization
// payload. Owned by the store's registration queue until drained.
type RegistrationEntry struct {
	TaskID       string
	ScopeID      string
	Registration *reelsdk.FileRegistration
}
