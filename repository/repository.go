package repository

import (
	"context"

	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/ledger"
)

// Store is the persistence collaborator for the escrow core. Implementations
// must provide atomic creation of a message together with its full ledger
// entry set, and surface interfaces.ErrNotFound for unknown identifiers.
//
// The escrow coordinator is the only writer of messages and entries; it
// serializes updates per message, so implementations do not need
// compare-and-swap semantics beyond ordinary transactional writes.
type Store interface {
	// CreateUser registers a participant and returns the stored record.
	CreateUser(ctx context.Context, name string) (interfaces.User, error)

	// GetUser looks up a participant by ID.
	GetUser(ctx context.Context, id interfaces.UserID) (interfaces.User, error)

	// ListUsers returns all registered participants.
	ListUsers(ctx context.Context) ([]interfaces.User, error)

	// CreateMessage persists a message and its complete set of ledger
	// entries as one atomic unit. Partial recipient sets must never be
	// observable.
	CreateMessage(ctx context.Context, msg *interfaces.Message, entries []*ledger.Entry) error

	// GetMessage looks up a message by ID.
	GetMessage(ctx context.Context, id interfaces.MessageID) (*interfaces.Message, error)

	// UpdateMessage persists the message's mutable fields (confirmed count,
	// encryption flag, validity deadline).
	UpdateMessage(ctx context.Context, msg *interfaces.Message) error

	// GetEntry looks up the ledger entry for a (message, recipient) pair.
	GetEntry(ctx context.Context, messageID interfaces.MessageID, recipient interfaces.UserID) (*ledger.Entry, error)

	// UpdateEntry persists an entry's state and share value.
	UpdateEntry(ctx context.Context, entry *ledger.Entry) error

	// DeleteEntry removes the entry for a (message, recipient) pair. Used
	// after the one-shot plaintext delivery of a reconstructed message.
	DeleteEntry(ctx context.Context, messageID interfaces.MessageID, recipient interfaces.UserID) error

	// EntriesFor returns all ledger entries belonging to a recipient.
	EntriesFor(ctx context.Context, recipient interfaces.UserID) ([]*ledger.Entry, error)

	// ReceivedShares returns the stored share values of every Received entry
	// for a message.
	ReceivedShares(ctx context.Context, messageID interfaces.MessageID) ([][]byte, error)

	// Close releases the store's resources.
	Close() error
}
