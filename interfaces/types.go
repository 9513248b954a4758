package interfaces

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserID uniquely identifies a registered participant.
type UserID string

// NewUserID generates a fresh random user ID.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

// ParseUserID validates and normalizes a user ID received over the wire.
func ParseUserID(source string) (UserID, error) {
	id, err := uuid.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: invalid user id %q", ErrValidation, source)
	}
	return UserID(id.String()), nil
}

// String returns the canonical textual form.
func (id UserID) String() string {
	return string(id)
}

// MessageID uniquely identifies an escrowed message. It doubles as the key
// under which the message's ciphertext (and later plaintext) blob is stored.
type MessageID string

// NewMessageID generates a fresh random message ID.
func NewMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// ParseMessageID validates and normalizes a message ID received over the wire.
func ParseMessageID(source string) (MessageID, error) {
	id, err := uuid.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: invalid message id %q", ErrValidation, source)
	}
	return MessageID(id.String()), nil
}

// String returns the canonical textual form.
func (id MessageID) String() string {
	return string(id)
}

// User is an opaque participant identity. The escrow core only references
// users; registration and lookup live in the persistence layer.
type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// Validate checks the fields a user record must carry.
func (u User) Validate() error {
	if u.ID == "" {
		return errors.New("user id must not be empty")
	}
	if u.Name == "" {
		return errors.New("user name must not be empty")
	}
	return nil
}

// Message groups an escrowed payload with its sender, reconstruction
// threshold, encryption flag, and validity deadline.
//
// Invariants maintained by the escrow coordinator:
//   - ConfirmedCount never exceeds Threshold.
//   - IsEncrypted flips to false exactly once, when ConfirmedCount reaches
//     Threshold.
//   - ValidTill is nil until the first share confirmation.
type Message struct {
	ID             MessageID  `json:"id"`
	Sender         UserID     `json:"sender_id"`
	Filename       string     `json:"filename"`
	IsEncrypted    bool       `json:"is_encrypted"`
	Threshold      int        `json:"threshold"`
	ConfirmedCount int        `json:"confirmed_count"`
	ValidTill      *time.Time `json:"valid_till,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
