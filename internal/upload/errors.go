package upload

import (
	"context"
	"errors"
)

// ErrKind classifies terminal upload failures.
type ErrKind string

const (
	// KindTransport is a network or HTTP failure during a byte transfer.
	KindTransport ErrKind = "transport"

	// KindUserCancelled is an explicitly requested cancellation. Callers
	// should not render it as a generic failure.
	KindUserCancelled ErrKind = "user"

	// KindRegistration means the bytes were stored but the file could not
	// be attached to the project. The stored bytes are left orphaned.
	KindRegistration ErrKind = "registration"
)

var (
	ErrTaskNotFound  = errors.New("upload: task not found")
	ErrDuplicateTask = errors.New("upload: duplicate task id")
)

// kindOf maps a transfer-phase error to its kind.
func kindOf(err error) ErrKind {
	if errors.Is(err, context.Canceled) {
		return KindUserCancelled
	}
	return KindTransport
}
