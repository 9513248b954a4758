// Package escrow implements the threshold escrow coordinator. A sender's
// payload is sealed under a fresh symmetric key, the key is split into
// shares distributed through per-recipient ledger entries, and once a
// threshold of recipients return their shares the key is reconstructed and
// the payload decrypted in place.
package escrow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thresholdshare/escrow-backend/cryptoutils"
	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/ledger"
	"github.com/thresholdshare/escrow-backend/metrics"
	"github.com/thresholdshare/escrow-backend/repository"
	"github.com/thresholdshare/escrow-backend/sharing"
)

// DefaultValidityWindow bounds how long after the first confirmation the
// remaining recipients are expected to respond. The deadline is recorded on
// the message and reported to clients; it is not enforced server-side.
const DefaultValidityWindow = 10 * time.Minute

// ItemKind discriminates what a pending item carries.
type ItemKind string

const (
	// ItemKeyShare marks an item whose Data is the recipient's key share.
	ItemKeyShare ItemKind = "keyshare"

	// ItemPayload marks an item whose Data is a reconstructed plaintext
	// payload. Payload items are delivered exactly once.
	ItemPayload ItemKind = "payload"
)

// PendingItem is one deliverable owed to a recipient.
type PendingItem struct {
	MessageID interfaces.MessageID
	Sender    interfaces.UserID
	Kind      ItemKind
	Filename  string
	Data      []byte
}

// Coordinator drives the escrow protocol over a persistence store and a
// blob store. All message mutations are serialized per message, so
// concurrent confirmations cannot trigger a double reconstruction.
type Coordinator struct {
	repo   repository.Store
	blobs  interfaces.BlobStore
	window time.Duration
	log    *slog.Logger

	// locks holds one *sync.Mutex per message currently being mutated.
	locks sync.Map
}

// New creates a coordinator. A zero validityWindow falls back to
// DefaultValidityWindow.
func New(repo repository.Store, blobs interfaces.BlobStore, validityWindow time.Duration, log *slog.Logger) *Coordinator {
	if validityWindow <= 0 {
		validityWindow = DefaultValidityWindow
	}
	return &Coordinator{
		repo:   repo,
		blobs:  blobs,
		window: validityWindow,
		log:    log,
	}
}

func (c *Coordinator) lockMessage(id interfaces.MessageID) func() {
	muAny, _ := c.locks.LoadOrStore(id, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Send escrows a payload from sender to recipients. The sender is always
// included as a recipient, duplicates are dropped, and the requested
// threshold is clamped to the effective recipient count. The sealed payload
// is written to blob storage before the message and its ledger entries are
// created, so a half-written message can never reference a missing blob.
func (c *Coordinator) Send(ctx context.Context, sender interfaces.UserID, recipients []interfaces.UserID, threshold int, filename string, payload []byte) (*interfaces.Message, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold must be at least 1, got %d", interfaces.ErrValidation, threshold)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: payload must not be empty", interfaces.ErrValidation)
	}

	if _, err := c.repo.GetUser(ctx, sender); err != nil {
		return nil, fmt.Errorf("sender %s: %w", sender, err)
	}

	effective := dedupeRecipients(sender, recipients)
	for _, r := range effective {
		if r == sender {
			continue
		}
		if _, err := c.repo.GetUser(ctx, r); err != nil {
			return nil, fmt.Errorf("recipient %s: %w", r, err)
		}
	}

	if threshold > len(effective) {
		c.log.Debug("Clamping threshold to recipient count",
			"requested", threshold, "recipients", len(effective))
		threshold = len(effective)
	}

	key, ciphertext, err := cryptoutils.Encrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("sealing payload: %w", err)
	}
	defer cryptoutils.WipeBytes(key)

	shares, err := sharing.Split(key, threshold, len(effective))
	if err != nil {
		return nil, fmt.Errorf("splitting key: %w", err)
	}

	msg := &interfaces.Message{
		ID:          interfaces.NewMessageID(),
		Sender:      sender,
		Filename:    filename,
		IsEncrypted: true,
		Threshold:   threshold,
		CreatedAt:   time.Now().UTC(),
	}

	if err := c.blobs.Store(ctx, msg.ID, ciphertext); err != nil {
		return nil, fmt.Errorf("storing payload: %w", err)
	}

	entries := make([]*ledger.Entry, len(effective))
	for i, r := range effective {
		entries[i] = ledger.NewEntry(msg.ID, r, shares[i])
	}

	if err := c.repo.CreateMessage(ctx, msg, entries); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	metrics.MessagesEscrowed.WithLabelValues("true").Inc()
	c.log.Info("Message escrowed",
		"message", msg.ID, "sender", sender,
		"recipients", len(effective), "threshold", threshold)
	return msg, nil
}

// PendingFor collects everything currently owed to a recipient. For each of
// the recipient's ledger entries it yields either the recipient's key share
// (first request only, entry moves to Sent) or, once the message has been
// decrypted, the plaintext payload (one-shot, the entry is deleted).
func (c *Coordinator) PendingFor(ctx context.Context, recipient interfaces.UserID) ([]PendingItem, error) {
	if _, err := c.repo.GetUser(ctx, recipient); err != nil {
		return nil, fmt.Errorf("recipient %s: %w", recipient, err)
	}

	entries, err := c.repo.EntriesFor(ctx, recipient)
	if err != nil {
		return nil, err
	}

	var items []PendingItem
	for _, entry := range entries {
		item, ok, err := c.pendingItem(ctx, entry)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (c *Coordinator) pendingItem(ctx context.Context, entry *ledger.Entry) (PendingItem, bool, error) {
	unlock := c.lockMessage(entry.MessageID)
	defer unlock()

	msg, err := c.repo.GetMessage(ctx, entry.MessageID)
	if err != nil {
		return PendingItem{}, false, err
	}

	// Entry state may have changed between listing and locking.
	entry, err = c.repo.GetEntry(ctx, entry.MessageID, entry.Recipient)
	if err != nil {
		return PendingItem{}, false, err
	}

	if !msg.IsEncrypted {
		plaintext, err := c.blobs.Fetch(ctx, msg.ID)
		if err != nil {
			return PendingItem{}, false, fmt.Errorf("fetching payload for %s: %w", msg.ID, err)
		}
		if err := c.repo.DeleteEntry(ctx, msg.ID, entry.Recipient); err != nil {
			return PendingItem{}, false, err
		}
		return PendingItem{
			MessageID: msg.ID,
			Sender:    msg.Sender,
			Kind:      ItemPayload,
			Filename:  msg.Filename,
			Data:      plaintext,
		}, true, nil
	}

	share, ok := entry.Deliver()
	if !ok {
		// Share already handed out; nothing owed until reconstruction.
		return PendingItem{}, false, nil
	}
	if err := c.repo.UpdateEntry(ctx, entry); err != nil {
		return PendingItem{}, false, err
	}

	metrics.SharesDelivered.Inc()
	c.log.Debug("Key share delivered", "message", msg.ID, "recipient", entry.Recipient)
	return PendingItem{
		MessageID: msg.ID,
		Sender:    msg.Sender,
		Kind:      ItemKeyShare,
		Filename:  msg.Filename,
		Data:      share,
	}, true, nil
}

// Acknowledge records a recipient returning their key share. It reports
// whether the acknowledgment had any effect: confirmations on undelivered
// or already-confirmed entries, or on already-decrypted messages, are
// no-ops rather than errors. The first effective confirmation starts the
// validity window; the one that reaches the threshold triggers
// reconstruction and in-place decryption of the payload.
func (c *Coordinator) Acknowledge(ctx context.Context, recipient interfaces.UserID, messageID interfaces.MessageID, share []byte) (bool, error) {
	if len(share) == 0 {
		return false, fmt.Errorf("%w: share must not be empty", interfaces.ErrValidation)
	}

	unlock := c.lockMessage(messageID)
	defer unlock()

	msg, err := c.repo.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	if !msg.IsEncrypted {
		return false, nil
	}

	entry, err := c.repo.GetEntry(ctx, messageID, recipient)
	if err != nil {
		return false, err
	}
	if !entry.Confirm(share) {
		return false, nil
	}
	if err := c.repo.UpdateEntry(ctx, entry); err != nil {
		return false, err
	}

	metrics.SharesConfirmed.Inc()

	if msg.ConfirmedCount == 0 {
		deadline := time.Now().UTC().Add(c.window)
		msg.ValidTill = &deadline
	}

	reconstruct := msg.ConfirmedCount == msg.Threshold-1
	if msg.ConfirmedCount < msg.Threshold {
		msg.ConfirmedCount++
	}

	if reconstruct {
		if err := c.reconstruct(ctx, msg); err != nil {
			metrics.Reconstructions.WithLabelValues("error").Inc()
			return false, err
		}
		metrics.Reconstructions.WithLabelValues("success").Inc()
		msg.IsEncrypted = false
	}

	if err := c.repo.UpdateMessage(ctx, msg); err != nil {
		return false, err
	}

	c.log.Info("Share acknowledged",
		"message", messageID, "recipient", recipient,
		"confirmed", msg.ConfirmedCount, "threshold", msg.Threshold,
		"decrypted", reconstruct)
	return true, nil
}

// reconstruct recovers the symmetric key from the confirmed shares and
// replaces the stored ciphertext with the decrypted payload.
func (c *Coordinator) reconstruct(ctx context.Context, msg *interfaces.Message) error {
	shares, err := c.repo.ReceivedShares(ctx, msg.ID)
	if err != nil {
		return err
	}

	key, err := sharing.Recover(shares, msg.Threshold)
	if err != nil {
		return fmt.Errorf("recovering key for %s: %w", msg.ID, err)
	}
	defer cryptoutils.WipeBytes(key)

	ciphertext, err := c.blobs.Fetch(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("fetching payload for %s: %w", msg.ID, err)
	}

	plaintext, err := cryptoutils.Decrypt(ciphertext, key)
	if err != nil {
		metrics.IntegrityFailures.Inc()
		return fmt.Errorf("decrypting payload for %s: %w", msg.ID, err)
	}

	if err := c.blobs.Store(ctx, msg.ID, plaintext); err != nil {
		return fmt.Errorf("storing decrypted payload for %s: %w", msg.ID, err)
	}
	return nil
}

// dedupeRecipients returns the recipient set with the sender prepended and
// duplicates removed, preserving first-seen order.
func dedupeRecipients(sender interfaces.UserID, recipients []interfaces.UserID) []interfaces.UserID {
	seen := map[interfaces.UserID]struct{}{sender: {}}
	effective := []interfaces.UserID{sender}
	for _, r := range recipients {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		effective = append(effective, r)
	}
	return effective
}
