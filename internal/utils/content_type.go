package utils

import (
	"mime"
	"path/filepath"
)

// DetectContentType resolves a content type from the file name extension.
// Unknown extensions fall back to application/octet-stream, which is what
// the storage layer expects for opaque media blobs.
func DetectContentType(name string) string {
	if mimeType := mime.TypeByExtension(filepath.Ext(name)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}
