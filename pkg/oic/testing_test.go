package oic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akaitrade/ordinalindex/pkg/checkpoint"
	"github.com/akaitrade/ordinalindex/pkg/kv"
)

// identityResolver treats a wire address as already being its own raw
// public key, which is enough to exercise balance keying in tests without
// pulling in a real address codec.
type identityResolver struct{}

func (identityResolver) PublicKeyOf(address string) ([]byte, error) {
	return []byte(address), nil
}

func newTestCore(t *testing.T) *Core {
	t.Helper()

	store := kv.New(t.TempDir())
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	cp, err := checkpoint.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cp.Close() })

	core := New(store, cp, identityResolver{})
	require.NoError(t, core.Open())
	require.NoError(t, core.OnStartReadFromDB(0))
	return core
}
