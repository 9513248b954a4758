package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	id := interfaces.NewMessageID()

	_, err = store.Fetch(ctx, id)
	assert.True(t, errors.Is(err, interfaces.ErrBlobNotFound), "Missing blob should be a not-found")

	require.NoError(t, store.Store(ctx, id, []byte("ciphertext")))

	data, err := store.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), data)

	// Overwrite at reconstruction time replaces the blob in place.
	require.NoError(t, store.Store(ctx, id, []byte("plaintext")))
	data, err = store.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("plaintext"), data)

	assert.True(t, store.Available(ctx))
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id := interfaces.NewMessageID()

	_, err := store.Fetch(ctx, id)
	assert.True(t, errors.Is(err, interfaces.ErrBlobNotFound))

	require.NoError(t, store.Store(ctx, id, []byte("payload")))
	data, err := store.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	// Mutating the returned slice must not leak into the store.
	data[0] = 'X'
	reread, err := store.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), reread)
}

// unavailableStore always reports itself as down.
type unavailableStore struct {
	*MemoryStore
}

func (u *unavailableStore) Available(ctx context.Context) bool { return false }
func (u *unavailableStore) Name() string                       { return "down" }

func TestMultiStore_FallbackAndFanout(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	secondary := NewMemoryStore()
	down := &unavailableStore{NewMemoryStore()}

	multi := NewMultiStore([]interfaces.BlobStore{down, primary, secondary}, testLogger())
	id := interfaces.NewMessageID()

	require.NoError(t, multi.Store(ctx, id, []byte("blob")))

	// Fanout reached both available backends, skipped the down one.
	data, err := primary.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)
	data, err = secondary.Fetch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)
	_, err = down.MemoryStore.Fetch(ctx, id)
	assert.True(t, errors.Is(err, interfaces.ErrBlobNotFound))

	// Fetch falls back past backends that miss.
	other := interfaces.NewMessageID()
	require.NoError(t, secondary.Store(ctx, other, []byte("only-here")))
	data, err = multi.Fetch(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, []byte("only-here"), data)

	_, err = multi.Fetch(ctx, interfaces.NewMessageID())
	assert.True(t, errors.Is(err, interfaces.ErrBlobNotFound), "Unanimous miss should surface as not-found")

	assert.True(t, multi.Available(ctx))
}

func TestFactory_Schemes(t *testing.T) {
	factory := NewFactory(testLogger())

	store, err := factory.StoreFor("mem://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = factory.StoreFor("file://" + t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = factory.StoreFor("gopher://example.com")
	assert.Error(t, err)

	multi, err := factory.CreateMultiStore([]string{"mem://", "gopher://bad", "file://" + t.TempDir()})
	require.NoError(t, err, "Invalid URIs are skipped as long as one backend works")
	assert.IsType(t, &MultiStore{}, multi)

	_, err = factory.CreateMultiStore([]string{"gopher://bad"})
	assert.Error(t, err, "No usable backend should be an error")
}
