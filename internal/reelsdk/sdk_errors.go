package reelsdk

import (
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
)

var (
	// sdk common
	ErrNoServerURL    = errors.New("sdk: server url missing")
	ErrNoSessionToken = errors.New("sdk: session token missing")

	// files
	ErrFileNotFound = errors.New("sdk: file not found")
)

const (
	// Generic request/server errors
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeAccessDenied   = "E_ACCESS_DENIED"   // access denied
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error

	// Upload errors
	CodeUploadURLFailed      = "E_UPLOAD_URL_FAILED"      // presigned url could not be issued
	CodeUploadSessionFailed  = "E_UPLOAD_SESSION_FAILED"  // multipart session could not be started
	CodeUploadCompleteFailed = "E_UPLOAD_COMPLETE_FAILED" // multipart completion failed

	// Registration errors
	CodeProjectNotFound    = "E_PROJECT_NOT_FOUND"   // the scope/project does not exist
	CodeRegistrationFailed = "E_REGISTRATION_FAILED" // file could not be attached to the project
	CodeFolderNotFound     = "E_FOLDER_NOT_FOUND"    // the destination folder does not exist
	CodeStackNotFound      = "E_STACK_NOT_FOUND"     // the destination stack does not exist
)

// APIError represents ReelSync API errors
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s - %s", e.Code, e.Message)
}

// handleAPIError is a helper function that handles the common error pattern
func handleAPIError(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		return fmt.Errorf("http request error: %s %w", operation, requestErr)
	}

	// got a response, but api returned an error
	if resp.IsErrorState() {
		if err, ok := resp.ErrorResult().(*APIError); ok {
			return fmt.Errorf("%s %w", operation, err)
		}

		return fmt.Errorf("api error: %s %s", operation, resp.Status)
	}

	return nil
}
