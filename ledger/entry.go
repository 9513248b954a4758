package ledger

import (
	"github.com/thresholdshare/escrow-backend/interfaces"
)

// State is the delivery state of one (message, recipient) share.
type State int

const (
	// StateNotSent: the share has been generated but not yet handed to the
	// recipient. The entry still holds the share value.
	StateNotSent State = iota

	// StateSent: the share has been delivered and cleared from the entry.
	// The server no longer retains it.
	StateSent

	// StateReceived: the recipient has returned their share. Terminal. The
	// entry holds the returned value, trusted as authoritative.
	StateReceived
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotSent:
		return "not_sent"
	case StateSent:
		return "sent"
	case StateReceived:
		return "received"
	default:
		return "unknown"
	}
}

// Entry is the ledger record for one (message, recipient) pair. Exactly one
// entry exists per pair, including the sender, who is always an implicit
// recipient of their own message.
//
// The only legal transitions are NotSent -> Sent via Deliver and
// Sent -> Received via Confirm. Nothing leaves Received and no entry skips
// Sent. Transition methods report no-effect instead of erroring so callers
// can treat re-polls and double confirmations as benign.
type Entry struct {
	MessageID interfaces.MessageID
	Recipient interfaces.UserID

	// Share holds the generated share before delivery and the returned share
	// after confirmation. It is empty while the entry is in StateSent, so a
	// delivered share never lingers server-side.
	Share []byte

	State State
}

// NewEntry creates a NotSent entry holding the recipient's generated share.
func NewEntry(messageID interfaces.MessageID, recipient interfaces.UserID, share []byte) *Entry {
	return &Entry{
		MessageID: messageID,
		Recipient: recipient,
		Share:     append([]byte(nil), share...),
		State:     StateNotSent,
	}
}

// Deliver hands out the stored share and clears it from the entry, moving it
// to StateSent. Valid only from StateNotSent; any other state is a no-op and
// returns false. A delivered share is never re-issued through this path.
func (e *Entry) Deliver() ([]byte, bool) {
	if e.State != StateNotSent {
		return nil, false
	}
	share := e.Share
	e.Share = nil
	e.State = StateSent
	return share, true
}

// Confirm records the share value the recipient returned and moves the entry
// to StateReceived. Valid only from StateSent: confirming an undelivered or
// already-confirmed entry has no effect and returns false. The value is
// stored as authoritative; the original share is gone, so no comparison is
// possible.
func (e *Entry) Confirm(value []byte) bool {
	if e.State != StateSent {
		return false
	}
	e.Share = append([]byte(nil), value...)
	e.State = StateReceived
	return true
}

// Clone returns an independent copy of the entry.
func (e *Entry) Clone() *Entry {
	clone := *e
	clone.Share = append([]byte(nil), e.Share...)
	return &clone
}
