package payone

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned before any network call when the stored
// settings are missing the account ID, portal ID or portal key.
var ErrNotConfigured = errors.New("payone settings not configured")

// ValidationError reports a required operation field the caller did not
// supply. Detected before submission; nothing is logged.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnreachableError wraps a transport-level failure (DNS, timeout, connection
// refused, non-2xx status). No gateway response exists in this case, so no
// transaction record is written.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("payone gateway unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}
