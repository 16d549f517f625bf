package reelsdk

import (
	"context"
	"fmt"

	"github.com/imroc/req/v3"
)

const (
	v1UploadDirect    = "/api/v1/files/upload/presigned"
	v1UploadMultipart = "/api/v1/files/upload/multipart"
	v1UploadChunkURL  = "/api/v1/files/upload/multipart/part"
	v1UploadComplete  = "/api/v1/files/upload/complete"
	v1RegisterFile    = "/api/v1/projects/files/register"
)

// FilesAPI covers the upload and registration operations of the metadata API.
type FilesAPI struct {
	client *req.Client
}

func newFilesAPI(client *req.Client) *FilesAPI {
	return &FilesAPI{
		client: client,
	}
}

// RequestDirectUploadURL obtains a presigned URL plus provisional file id for
// a whole-file upload.
func (f *FilesAPI) RequestDirectUploadURL(ctx context.Context, params *DirectUploadRequest) (apiResp *DirectUploadGrant, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&apiResp).
		Post(v1UploadDirect)

	if err := handleAPIError(resp, err, "direct upload url"); err != nil {
		return nil, err
	}
	if apiResp == nil || apiResp.URL == "" || apiResp.StorageKey == "" {
		return nil, fmt.Errorf("invalid direct upload response")
	}

	return apiResp, nil
}

// StartMultipartSession opens a chunked upload session.
func (f *FilesAPI) StartMultipartSession(ctx context.Context, params *MultipartSessionRequest) (apiResp *MultipartSession, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&apiResp).
		Post(v1UploadMultipart)

	if err := handleAPIError(resp, err, "multipart session"); err != nil {
		return nil, err
	}
	if apiResp == nil || apiResp.UploadID == "" || apiResp.StorageKey == "" {
		return nil, fmt.Errorf("invalid multipart session response")
	}

	return apiResp, nil
}

// RequestChunkUploadURL obtains the presigned URL for one part of an open
// multipart session.
func (f *FilesAPI) RequestChunkUploadURL(ctx context.Context, storageKey, uploadID string, partNumber int) (string, error) {
	var apiResp *ChunkURLGrant
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(&ChunkURLRequest{
			StorageKey: storageKey,
			UploadID:   uploadID,
			PartNumber: partNumber,
		}).
		SetSuccessResult(&apiResp).
		Post(v1UploadChunkURL)

	if err := handleAPIError(resp, err, "chunk upload url"); err != nil {
		return "", err
	}
	if apiResp == nil || apiResp.URL == "" {
		return "", fmt.Errorf("invalid chunk url response for part %d", partNumber)
	}

	return apiResp.URL, nil
}

// CompleteMultipartSession finalizes a session with the ordered part
// acknowledgments.
func (f *FilesAPI) CompleteMultipartSession(ctx context.Context, storageKey, uploadID string, parts []*CompletedPart) error {
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(&CompleteMultipartRequest{
			StorageKey: storageKey,
			UploadID:   uploadID,
			Parts:      parts,
		}).
		Post(v1UploadComplete)

	return handleAPIError(resp, err, "multipart complete")
}

// RegisterUploadedFile tells the metadata API that an already-stored blob is
// now an asset of the given project.
func (f *FilesAPI) RegisterUploadedFile(ctx context.Context, projectID string, file *FileRegistration) (apiResp *RegisterResponse, err error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(&RegisterRequest{
			ProjectID: projectID,
			File:      file,
		}).
		SetSuccessResult(&apiResp).
		Post(v1RegisterFile)

	if err := handleAPIError(resp, err, "register uploaded file"); err != nil {
		return nil, err
	}
	if apiResp == nil || apiResp.Project == nil {
		return nil, fmt.Errorf("invalid register response")
	}

	return apiResp, nil
}
