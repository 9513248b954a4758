// Package api defines the wire types shared by the escrow HTTP server and
// its clients. Binary payloads travel base64-encoded through the standard
// encoding/json marshaling of []byte; key shares travel hex-encoded.
package api

import (
	"time"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// RegisterUserRequest registers a new participant.
type RegisterUserRequest struct {
	Name string `json:"name"`
}

// SendMessageRequest escrows a payload for a set of recipients.
type SendMessageRequest struct {
	SenderID    string   `json:"sender_id"`
	ReceiverIDs []string `json:"receiver_ids"`
	Threshold   int      `json:"threshold"`
	Filename    string   `json:"filename"`

	// Payload is the raw file content, base64-encoded on the wire.
	Payload []byte `json:"payload"`
}

// MessageResponse describes an escrowed message's public state.
type MessageResponse struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	Filename       string     `json:"filename"`
	IsEncrypted    bool       `json:"is_encrypted"`
	Threshold      int        `json:"threshold"`
	ConfirmedCount int        `json:"confirmed_count"`
	ValidTill      *time.Time `json:"valid_till,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// MessageResponseFrom converts an internal message to its wire form.
func MessageResponseFrom(msg *interfaces.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID.String(),
		SenderID:       msg.Sender.String(),
		Filename:       msg.Filename,
		IsEncrypted:    msg.IsEncrypted,
		Threshold:      msg.Threshold,
		ConfirmedCount: msg.ConfirmedCount,
		ValidTill:      msg.ValidTill,
		CreatedAt:      msg.CreatedAt,
	}
}

// Pending item kinds as they appear on the wire.
const (
	PendingKindKeyShare = "keyshare"
	PendingKindPayload  = "payload"
)

// PendingItemResponse is one deliverable owed to a recipient. For keyshare
// items Share carries the hex-encoded key share; for payload items Payload
// carries the decrypted file content.
type PendingItemResponse struct {
	MessageID string `json:"message_id"`
	SenderID  string `json:"sender_id"`
	Kind      string `json:"kind"`
	Filename  string `json:"filename"`
	Share     string `json:"share,omitempty"`
	Payload   []byte `json:"payload,omitempty"`
}

// AcknowledgeRequest returns a previously delivered key share.
type AcknowledgeRequest struct {
	UserID string `json:"user_id"`

	// Share is the hex-encoded key share as delivered.
	Share string `json:"share"`
}

// AcknowledgeResponse reports whether the acknowledgment changed anything.
// Repeated or premature acknowledgments succeed with Effect set to false.
type AcknowledgeResponse struct {
	Effect  bool             `json:"effect"`
	Message *MessageResponse `json:"message,omitempty"`
}
