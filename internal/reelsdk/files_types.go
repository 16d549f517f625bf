package reelsdk

import (
	"time"
)

const (
	HeaderClientVersion = "X-Reelsync-Version"
)

// DirectUploadRequest asks for a single presigned destination URL.
type DirectUploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	ProjectID   string `json:"projectId"`
}

// DirectUploadGrant is a presigned destination for a whole-file upload.
type DirectUploadGrant struct {
	URL               string `json:"url"`
	StorageKey        string `json:"storageKey"`
	ProvisionalFileID string `json:"fileId"`
}

// MultipartSessionRequest starts a chunked upload session.
type MultipartSessionRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	ProjectID   string `json:"projectId"`
}

// MultipartSession identifies one chunked upload in progress.
type MultipartSession struct {
	UploadID          string `json:"uploadId"`
	StorageKey        string `json:"storageKey"`
	ProvisionalFileID string `json:"fileId"`
}

// ChunkURLRequest asks for the presigned URL of one part.
type ChunkURLRequest struct {
	StorageKey string `json:"storageKey"`
	UploadID   string `json:"uploadId"`
	PartNumber int    `json:"partNumber"`
}

// ChunkURLGrant is the presigned destination for one part.
type ChunkURLGrant struct {
	URL string `json:"url"`
}

// CompletedPart is the acknowledgment for one uploaded part.
type CompletedPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// CompleteMultipartRequest finalizes a chunked upload session.
type CompleteMultipartRequest struct {
	StorageKey string           `json:"storageKey"`
	UploadID   string           `json:"uploadId"`
	Parts      []*CompletedPart `json:"parts"`
}

// FileRegistration associates an already-stored blob with a project.
type FileRegistration struct {
	StorageKey        string `json:"storageKey"`
	ProvisionalFileID string `json:"fileId"`
	ContentType       string `json:"contentType"`
	OriginalName      string `json:"originalName"`
	SizeBytes         int64  `json:"sizeBytes"`
	FolderID          string `json:"folderId,omitempty"`
	StackID           string `json:"stackId,omitempty"`
	StackWithFileID   string `json:"stackWithFileId,omitempty"`
}

// RegisterRequest is the payload of the register operation.
type RegisterRequest struct {
	ProjectID string            `json:"projectId"`
	File      *FileRegistration `json:"file"`
}

// ProjectRecord is the authoritative project document returned after
// registration, used to refresh caller-side read caches.
type ProjectRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FileCount int       `json:"fileCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FolderRecord is the authoritative parent folder document, present when the
// file was registered into a folder.
type FolderRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FileCount int       `json:"fileCount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegisterResponse is the response of the register operation.
type RegisterResponse struct {
	Project      *ProjectRecord `json:"project"`
	ParentFolder *FolderRecord  `json:"parentFolder,omitempty"`
}
