package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

func newTestEntry() *Entry {
	return NewEntry(interfaces.NewMessageID(), interfaces.NewUserID(), []byte("share-value"))
}

func TestEntry_DeliverThenConfirm(t *testing.T) {
	entry := newTestEntry()
	assert.Equal(t, StateNotSent, entry.State)
	assert.NotEmpty(t, entry.Share, "NotSent entry holds the generated share")

	share, ok := entry.Deliver()
	require.True(t, ok, "Deliver from NotSent should succeed")
	assert.Equal(t, []byte("share-value"), share)
	assert.Equal(t, StateSent, entry.State)
	assert.Empty(t, entry.Share, "Delivered share must not linger in the entry")

	ok = entry.Confirm([]byte("returned-value"))
	require.True(t, ok, "Confirm from Sent should succeed")
	assert.Equal(t, StateReceived, entry.State)
	assert.Equal(t, []byte("returned-value"), entry.Share, "Returned value is stored as authoritative")
}

func TestEntry_DeliverIsOneShot(t *testing.T) {
	entry := newTestEntry()

	_, ok := entry.Deliver()
	require.True(t, ok)

	share, ok := entry.Deliver()
	assert.False(t, ok, "Second delivery must be a no-op")
	assert.Nil(t, share)
	assert.Equal(t, StateSent, entry.State)
}

func TestEntry_ConfirmRequiresDelivery(t *testing.T) {
	entry := newTestEntry()

	ok := entry.Confirm([]byte("early"))
	assert.False(t, ok, "Confirming an undelivered entry has no effect")
	assert.Equal(t, StateNotSent, entry.State, "Entry must stay NotSent")
	assert.Equal(t, []byte("share-value"), entry.Share, "Original share must be untouched")
}

func TestEntry_ReceivedIsTerminal(t *testing.T) {
	entry := newTestEntry()
	entry.Deliver()
	require.True(t, entry.Confirm([]byte("first")))

	ok := entry.Confirm([]byte("second"))
	assert.False(t, ok, "Double confirmation has no effect")
	assert.Equal(t, []byte("first"), entry.Share, "First confirmed value must be kept")

	_, ok = entry.Deliver()
	assert.False(t, ok, "Nothing leaves Received")
	assert.Equal(t, StateReceived, entry.State)
}

func TestEntry_Clone(t *testing.T) {
	entry := newTestEntry()
	clone := entry.Clone()

	clone.Deliver()
	assert.Equal(t, StateNotSent, entry.State, "Mutating the clone must not affect the original")
	assert.NotEmpty(t, entry.Share)
}
