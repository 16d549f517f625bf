package reelsdk

import (
	"time"

	"github.com/imroc/req/v3"
	"github.com/reelsync/reelsync/internal/version"
)

// SDK is the client for the ReelSync metadata API.
type SDK struct {
	client  *req.Client
	baseURL string
	Files   *FilesAPI
}

// New creates a new ReelSync API client.
func New(baseURL string) (*SDK, error) {
	client := req.C().
		SetBaseURL(baseURL).
		SetUserAgent("ReelSync/"+version.Version).
		SetCommonHeader(HeaderClientVersion, version.Version).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1*time.Second).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &SDK{
		client:  client,
		baseURL: baseURL,
		Files:   newFilesAPI(client),
	}, nil
}

// Login sets the session token used for API calls.
func (s *SDK) Login(token string) error {
	if token == "" {
		return ErrNoSessionToken
	}
	s.client.SetCommonBearerAuthToken(token)
	return nil
}

// Close terminates all connections and cleans up resources.
func (s *SDK) Close() {
	s.client.CloseIdleConnections()
}
