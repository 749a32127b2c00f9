// pkg/winsec/winsec_test.go

package winsec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = `HKLM:\SOFTWARE\Policies\Test`

func TestElevationSequence(t *testing.T) {
	r := NewRecorder()

	var during string
	err := r.WithElevatedAccess(key, func() error {
		during = r.Descriptor(key)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "elevated", during, "descriptor is open while the mutation runs")
	assert.Equal(t, "default", r.Descriptor(key), "restored afterwards")
	assert.Equal(t, []string{
		"create:" + key,
		"snapshot:" + key,
		"grant:" + key,
		"restore:" + key,
	}, r.Events)
}

func TestRestoreRunsAfterMutationError(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("mutation failed")

	err := r.WithElevatedAccess(key, func() error { return boom })

	assert.ErrorIs(t, err, boom, "the mutation error propagates")
	assert.Equal(t, "default", r.Descriptor(key), "descriptor restored despite the failure")
}

func TestRestoreRunsOnPanic(t *testing.T) {
	r := NewRecorder()

	assert.Panics(t, func() {
		_ = r.WithElevatedAccess(key, func() error { panic("mid-mutation") })
	})
	assert.Equal(t, "default", r.Descriptor(key))
	assert.Contains(t, r.Events, "restore:"+key)
}

func TestCreateFailureReturnsSentinel(t *testing.T) {
	r := NewRecorder()
	r.FailCreate = true

	called := false
	err := r.WithElevatedAccess(key, func() error { called = true; return nil })

	assert.ErrorIs(t, err, ErrCannotCreateKey)
	assert.False(t, called, "mutation never runs when the key cannot be opened")
	assert.Empty(t, r.Events)
}

func TestRestoreFailureEscalates(t *testing.T) {
	r := NewRecorder()
	r.FailRestore = true

	err := r.WithElevatedAccess(key, func() error { return nil })

	var restoreErr *RestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.Equal(t, key, restoreErr.KeyPath)
	assert.Contains(t, restoreErr.Error(), "MANUAL ACTION REQUIRED")
}
