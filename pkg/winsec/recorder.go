package winsec

import (
	"fmt"
	"sync"
)

// Recorder is an Elevator that tracks descriptor state in memory. It backs
// the handler tests on every platform and is the stand-in implementation on
// non-Windows builds.
type Recorder struct {
	mu sync.Mutex

	// Events records the acquisition sequence: create, snapshot, grant,
	// restore, per key path, in order.
	Events []string
	// Descriptors holds the simulated security descriptor per key.
	Descriptors map[string]string

	FailCreate  bool
	FailRestore bool
}

// NewRecorder returns a Recorder with default-permission descriptors.
func NewRecorder() *Recorder {
	return &Recorder{Descriptors: make(map[string]string)}
}

// Descriptor returns the current simulated descriptor for a key.
func (r *Recorder) Descriptor(keyPath string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.Descriptors[keyPath]; ok {
		return d
	}
	return "default"
}

func (r *Recorder) record(event, keyPath string) {
	r.Events = append(r.Events, fmt.Sprintf("%s:%s", event, keyPath))
}

// WithElevatedAccess simulates the snapshot/grant/restore sequence.
func (r *Recorder) WithElevatedAccess(keyPath string, fn func() error) error {
	r.mu.Lock()
	if r.FailCreate {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrCannotCreateKey, keyPath)
	}
	if _, ok := r.Descriptors[keyPath]; !ok {
		r.record("create", keyPath)
		r.Descriptors[keyPath] = "default"
	}
	snapshot := r.Descriptors[keyPath]
	r.record("snapshot", keyPath)
	r.Descriptors[keyPath] = "elevated"
	r.record("grant", keyPath)
	r.mu.Unlock()

	var restoreErr error
	restore := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.record("restore", keyPath)
		if r.FailRestore {
			restoreErr = &RestoreError{KeyPath: keyPath, Cause: fmt.Errorf("simulated restore failure")}
			return
		}
		r.Descriptors[keyPath] = snapshot
	}

	// Restore must run even when fn panics.
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	fnErr := fn()
	restore()
	if restoreErr != nil {
		return restoreErr
	}
	return fnErr
}
