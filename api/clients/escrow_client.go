// Package clients provides an HTTP client for the escrow service API.
package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/thresholdshare/escrow-backend/api"
	"github.com/thresholdshare/escrow-backend/interfaces"
)

// EscrowClient is a client for the escrow service HTTP API. The zero value
// with ServerURL set is usable; Client defaults to http.DefaultClient.
type EscrowClient struct {
	// ServerURL is the base URL of the escrow service, without trailing slash.
	ServerURL string

	Client *http.Client
}

// NewEscrowClient creates a client for the escrow service at serverURL.
func NewEscrowClient(serverURL string) *EscrowClient {
	return &EscrowClient{
		ServerURL: serverURL,
		Client:    http.DefaultClient,
	}
}

func (c *EscrowClient) do(method, path string, body, into any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.ServerURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not request escrow service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("escrow service returned %d: %s", resp.StatusCode, string(respBody))
	}

	if into != nil {
		if err := json.Unmarshal(respBody, into); err != nil {
			return fmt.Errorf("could not parse response: %w", err)
		}
	}
	return nil
}

// RegisterUser registers a participant and returns the stored record.
func (c *EscrowClient) RegisterUser(name string) (*interfaces.User, error) {
	var user interfaces.User
	if err := c.do(http.MethodPost, "/api/users", api.RegisterUserRequest{Name: name}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all registered participants.
func (c *EscrowClient) ListUsers() ([]interfaces.User, error) {
	var users []interfaces.User
	if err := c.do(http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SendMessage escrows a payload and returns the created message.
func (c *EscrowClient) SendMessage(req api.SendMessageRequest) (*api.MessageResponse, error) {
	var msg api.MessageResponse
	if err := c.do(http.MethodPost, "/api/messages", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Pending collects everything currently owed to a recipient. An empty
// result is not an error.
func (c *EscrowClient) Pending(userID string) ([]api.PendingItemResponse, error) {
	var items []api.PendingItemResponse
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/users/%s/pending", userID), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Acknowledge returns a previously delivered key share.
func (c *EscrowClient) Acknowledge(messageID, userID, share string) (*api.AcknowledgeResponse, error) {
	var ack api.AcknowledgeResponse
	path := fmt.Sprintf("/api/messages/%s/acknowledge", messageID)
	if err := c.do(http.MethodPost, path, api.AcknowledgeRequest{UserID: userID, Share: share}, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}
