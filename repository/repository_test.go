package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/ledger"
)

// Both implementations run through the same suite.
func withStores(t *testing.T, run func(t *testing.T, store Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		store := NewMemory()
		defer store.Close()
		run(t, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := NewSQLite(filepath.Join(t.TempDir(), "escrow.db"))
		require.NoError(t, err)
		defer store.Close()
		run(t, store)
	})
}

func seedMessage(t *testing.T, store Store, recipients int) (*interfaces.Message, []*ledger.Entry) {
	t.Helper()
	ctx := context.Background()

	sender, err := store.CreateUser(ctx, "sender")
	require.NoError(t, err)

	msg := &interfaces.Message{
		ID:          interfaces.NewMessageID(),
		Sender:      sender.ID,
		Filename:    "vault.jpg",
		IsEncrypted: true,
		Threshold:   recipients,
	}

	entries := make([]*ledger.Entry, 0, recipients)
	for i := 0; i < recipients; i++ {
		user, err := store.CreateUser(ctx, "recipient")
		require.NoError(t, err)
		entries = append(entries, ledger.NewEntry(msg.ID, user.ID, []byte{byte(i + 1), 0xaa}))
	}

	require.NoError(t, store.CreateMessage(ctx, msg, entries))
	return msg, entries
}

func TestStore_Users(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		user, err := store.CreateUser(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)

		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user, got)

		_, err = store.GetUser(ctx, interfaces.NewUserID())
		assert.True(t, errors.Is(err, interfaces.ErrNotFound))

		_, err = store.CreateUser(ctx, "")
		assert.True(t, errors.Is(err, interfaces.ErrValidation))

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestStore_MessageLifecycle(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		msg, entries := seedMessage(t, store, 3)

		got, err := store.GetMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.True(t, got.IsEncrypted)
		assert.Equal(t, 0, got.ConfirmedCount)
		assert.Nil(t, got.ValidTill)

		got.ConfirmedCount = 2
		got.IsEncrypted = false
		require.NoError(t, store.UpdateMessage(ctx, got))

		reread, err := store.GetMessage(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, reread.ConfirmedCount)
		assert.False(t, reread.IsEncrypted)

		_, err = store.GetMessage(ctx, interfaces.NewMessageID())
		assert.True(t, errors.Is(err, interfaces.ErrNotFound))

		// Entry lookups and transitions persist.
		entry, err := store.GetEntry(ctx, msg.ID, entries[0].Recipient)
		require.NoError(t, err)
		assert.Equal(t, ledger.StateNotSent, entry.State)
		assert.NotEmpty(t, entry.Share)

		share, ok := entry.Deliver()
		require.True(t, ok)
		require.NoError(t, store.UpdateEntry(ctx, entry))

		persisted, err := store.GetEntry(ctx, msg.ID, entries[0].Recipient)
		require.NoError(t, err)
		assert.Equal(t, ledger.StateSent, persisted.State)
		assert.Empty(t, persisted.Share, "Delivered share must be cleared at rest")

		require.True(t, persisted.Confirm(share))
		require.NoError(t, store.UpdateEntry(ctx, persisted))

		shares, err := store.ReceivedShares(ctx, msg.ID)
		require.NoError(t, err)
		require.Len(t, shares, 1)
		assert.Equal(t, share, shares[0])
	})
}

func TestStore_EntriesForAndDelete(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		msg, entries := seedMessage(t, store, 2)

		recipient := entries[1].Recipient
		got, err := store.EntriesFor(ctx, recipient)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, msg.ID, got[0].MessageID)

		require.NoError(t, store.DeleteEntry(ctx, msg.ID, recipient))

		got, err = store.EntriesFor(ctx, recipient)
		require.NoError(t, err)
		assert.Empty(t, got)

		err = store.DeleteEntry(ctx, msg.ID, recipient)
		assert.True(t, errors.Is(err, interfaces.ErrNotFound))
	})
}

func TestSQLite_CreateMessageIsAtomic(t *testing.T) {
	store, err := NewSQLite(filepath.Join(t.TempDir(), "escrow.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	msg, entries := seedMessage(t, store, 2)

	// Re-inserting the same message must fail on the primary key and leave
	// no trace of the second attempt's entries.
	dup := *msg
	dupEntries := []*ledger.Entry{
		ledger.NewEntry(msg.ID, entries[0].Recipient, []byte{0x01}),
	}
	err = store.CreateMessage(ctx, &dup, dupEntries)
	require.Error(t, err)

	persisted, err := store.EntriesFor(ctx, entries[0].Recipient)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, ledger.StateNotSent, persisted[0].State)
}

func TestOpen_Schemes(t *testing.T) {
	store, err := Open("mem://")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	store, err = Open("sqlite:" + filepath.Join(t.TempDir(), "escrow.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, store)
	store.Close()

	_, err = Open("postgres://localhost/escrow")
	assert.Error(t, err)
}
