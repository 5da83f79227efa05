// Package platform provides the client contract for the target platform's
// record store.
package platform

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the platform could not be reached.
var ErrUnavailable = errors.New("platform unavailable")

// PermissionDeniedError is returned when the platform rejects an operation
// for authorization reasons. It is a typed error so callers never need to
// inspect message text or status strings.
type PermissionDeniedError struct {
	// Operation is the operation that was rejected (e.g. "create").
	Operation string
	// Resource is the record type or identifier the operation targeted.
	Resource string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s on %s", e.Operation, e.Resource)
}

// IsPermissionDenied reports whether err is (or wraps) a permission failure.
func IsPermissionDenied(err error) bool {
	var pd *PermissionDeniedError
	return errors.As(err, &pd)
}
