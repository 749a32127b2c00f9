// pkg/winsec/winsec.go - scoped elevation for ACL-protected registry keys.
//
// Some tweak targets live under keys whose default ACL denies writes even to
// administrators. The helper snapshots the key's security descriptor, grants
// the Administrators group ownership and full control, runs the mutation,
// and restores the snapshot on every exit path. A failed restore leaves the
// key with non-default permissions, which is escalated, never swallowed.

package winsec

import (
	"errors"
	"fmt"
)

// ErrCannotCreateKey reports that the target key was absent and could not
// be created; the elevated mutation is abandoned.
var ErrCannotCreateKey = errors.New("cannot create registry key for elevated access")

// RestoreError reports that the original security descriptor could not be
// put back. This is a manual-action-required condition: the key's
// permissions now differ from before the run.
type RestoreError struct {
	KeyPath string
	Cause   error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("MANUAL ACTION REQUIRED: failed to restore original permissions on %s: %v",
		e.KeyPath, e.Cause)
}

func (e *RestoreError) Unwrap() error { return e.Cause }

// Elevator runs an action with temporarily elevated access to a registry key.
type Elevator interface {
	// WithElevatedAccess acquires elevated rights on keyPath, runs fn, and
	// restores the prior security descriptor whether fn succeeded, returned
	// an error, or panicked. fn's error is propagated; a restore failure is
	// returned as *RestoreError and takes precedence.
	WithElevatedAccess(keyPath string, fn func() error) error
}
