package badger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestBackend creates an in-memory backend for tests and registers its
// cleanup with t.
func NewTestBackend(t *testing.T) *Backend {
	t.Helper()

	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	t.Cleanup(func() {
		if !backend.IsClosed() {
			require.NoError(t, backend.Close())
		}
	})

	return backend
}

// NewTestRepository creates a Repository over an in-memory backend for
// tests.
func NewTestRepository(t *testing.T) *Repository {
	t.Helper()

	repo, err := NewRepository(NewTestBackend(t))
	require.NoError(t, err)
	return repo
}
