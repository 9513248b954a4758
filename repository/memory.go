package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/ledger"
)

type entryKey struct {
	message   interfaces.MessageID
	recipient interfaces.UserID
}

// Memory is a mutex-guarded in-memory Store. It backs tests and single-node
// development setups; nothing survives a restart.
type Memory struct {
	mu       sync.RWMutex
	users    map[interfaces.UserID]interfaces.User
	messages map[interfaces.MessageID]*interfaces.Message
	entries  map[entryKey]*ledger.Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[interfaces.UserID]interfaces.User),
		messages: make(map[interfaces.MessageID]*interfaces.Message),
		entries:  make(map[entryKey]*ledger.Entry),
	}
}

func (m *Memory) CreateUser(ctx context.Context, name string) (interfaces.User, error) {
	if name == "" {
		return interfaces.User{}, fmt.Errorf("%w: user name must not be empty", interfaces.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := interfaces.User{ID: interfaces.NewUserID(), Name: name}
	m.users[user.ID] = user
	return user, nil
}

func (m *Memory) GetUser(ctx context.Context, id interfaces.UserID) (interfaces.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return interfaces.User{}, fmt.Errorf("%w: user %s", interfaces.ErrNotFound, id)
	}
	return user, nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]interfaces.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]interfaces.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *Memory) CreateMessage(ctx context.Context, msg *interfaces.Message, entries []*ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.messages[msg.ID]; exists {
		return fmt.Errorf("%w: message %s already exists", interfaces.ErrValidation, msg.ID)
	}

	stored := *msg
	m.messages[msg.ID] = &stored
	for _, entry := range entries {
		m.entries[entryKey{entry.MessageID, entry.Recipient}] = entry.Clone()
	}
	return nil
}

func (m *Memory) GetMessage(ctx context.Context, id interfaces.MessageID) (*interfaces.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", interfaces.ErrNotFound, id)
	}
	clone := *msg
	return &clone, nil
}

func (m *Memory) UpdateMessage(ctx context.Context, msg *interfaces.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.messages[msg.ID]; !ok {
		return fmt.Errorf("%w: message %s", interfaces.ErrNotFound, msg.ID)
	}
	stored := *msg
	m.messages[msg.ID] = &stored
	return nil
}

func (m *Memory) GetEntry(ctx context.Context, messageID interfaces.MessageID, recipient interfaces.UserID) (*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[entryKey{messageID, recipient}]
	if !ok {
		return nil, fmt.Errorf("%w: no ledger entry for message %s recipient %s",
			interfaces.ErrNotFound, messageID, recipient)
	}
	return entry.Clone(), nil
}

func (m *Memory) UpdateEntry(ctx context.Context, entry *ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{entry.MessageID, entry.Recipient}
	if _, ok := m.entries[key]; !ok {
		return fmt.Errorf("%w: no ledger entry for message %s recipient %s",
			interfaces.ErrNotFound, entry.MessageID, entry.Recipient)
	}
	m.entries[key] = entry.Clone()
	return nil
}

func (m *Memory) DeleteEntry(ctx context.Context, messageID interfaces.MessageID, recipient interfaces.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{messageID, recipient}
	if _, ok := m.entries[key]; !ok {
		return fmt.Errorf("%w: no ledger entry for message %s recipient %s",
			interfaces.ErrNotFound, messageID, recipient)
	}
	delete(m.entries, key)
	return nil
}

func (m *Memory) EntriesFor(ctx context.Context, recipient interfaces.UserID) ([]*ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*ledger.Entry
	for key, entry := range m.entries {
		if key.recipient == recipient {
			entries = append(entries, entry.Clone())
		}
	}
	return entries, nil
}

func (m *Memory) ReceivedShares(ctx context.Context, messageID interfaces.MessageID) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var shares [][]byte
	for key, entry := range m.entries {
		if key.message == messageID && entry.State == ledger.StateReceived {
			shares = append(shares, append([]byte(nil), entry.Share...))
		}
	}
	return shares, nil
}

func (m *Memory) Close() error {
	return nil
}
