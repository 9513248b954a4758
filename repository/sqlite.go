package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/thresholdshare/escrow-backend/interfaces"
	"github.com/thresholdshare/escrow-backend/ledger"
)

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
  id   TEXT PRIMARY KEY,
  name TEXT NOT NULL
);
`,
	`
CREATE TABLE IF NOT EXISTS messages (
  id              TEXT PRIMARY KEY,
  sender_id       TEXT NOT NULL REFERENCES users(id),
  filename        TEXT NOT NULL,
  is_encrypted    INTEGER NOT NULL DEFAULT 1,
  threshold       INTEGER NOT NULL,
  confirmed_count INTEGER NOT NULL DEFAULT 0,
  valid_till      INTEGER,
  created_at      INTEGER NOT NULL
);
`,
	`
CREATE TABLE IF NOT EXISTS message_receivers (
  message_id  TEXT NOT NULL REFERENCES messages(id),
  receiver_id TEXT NOT NULL REFERENCES users(id),
  share       BLOB,
  state       INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (message_id, receiver_id)
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_message_receivers_receiver
ON message_receivers (receiver_id);
`,
}

// SQLite is a Store backed by a local SQLite database. The schema mirrors
// the escrow data model: users, messages, and one message_receivers row per
// (message, recipient) pair with a composite primary key.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the database at path and applies
// the schema. Use ":memory:" for an ephemeral database.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) CreateUser(ctx context.Context, name string) (interfaces.User, error) {
	if name == "" {
		return interfaces.User{}, fmt.Errorf("%w: user name must not be empty", interfaces.ErrValidation)
	}

	user := interfaces.User{ID: interfaces.NewUserID(), Name: name}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name) VALUES (?, ?)`, user.ID.String(), user.Name)
	if err != nil {
		return interfaces.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (s *SQLite) GetUser(ctx context.Context, id interfaces.UserID) (interfaces.User, error) {
	var user interfaces.User
	var rawID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM users WHERE id = ?`, id.String()).Scan(&rawID, &user.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.User{}, fmt.Errorf("%w: user %s", interfaces.ErrNotFound, id)
	}
	if err != nil {
		return interfaces.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.ID = interfaces.UserID(rawID)
	return user, nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]interfaces.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []interfaces.User
	for rows.Next() {
		var rawID string
		var user interfaces.User
		if err := rows.Scan(&rawID, &user.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.ID = interfaces.UserID(rawID)
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLite) CreateMessage(ctx context.Context, msg *interfaces.Message, entries []*ledger.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var validTill *int64
	if msg.ValidTill != nil {
		unix := msg.ValidTill.Unix()
		validTill = &unix
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, filename, is_encrypted, threshold, confirmed_count, valid_till, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID.String(), msg.Sender.String(), msg.Filename, boolToInt(msg.IsEncrypted),
		msg.Threshold, msg.ConfirmedCount, validTill, msg.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	for _, entry := range entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO message_receivers (message_id, receiver_id, share, state) VALUES (?, ?, ?, ?)`,
			entry.MessageID.String(), entry.Recipient.String(), entry.Share, int(entry.State))
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) GetMessage(ctx context.Context, id interfaces.MessageID) (*interfaces.Message, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, filename, is_encrypted, threshold, confirmed_count, valid_till, created_at
		 FROM messages WHERE id = ?`, id.String())
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %s", interfaces.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	return msg, nil
}

func (s *SQLite) UpdateMessage(ctx context.Context, msg *interfaces.Message) error {
	var validTill *int64
	if msg.ValidTill != nil {
		unix := msg.ValidTill.Unix()
		validTill = &unix
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET is_encrypted = ?, confirmed_count = ?, valid_till = ? WHERE id = ?`,
		boolToInt(msg.IsEncrypted), msg.ConfirmedCount, validTill, msg.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: message %s", interfaces.ErrNotFound, msg.ID)
	}
	return nil
}

func (s *SQLite) GetEntry(ctx context.Context, messageID interfaces.MessageID, recipient interfaces.UserID) (*ledger.Entry, error) {
	var entry ledger.Entry
	var rawMsg, rawRcpt string
	var state int
	err := s.db.QueryRowContext(ctx,
		`SELECT message_id, receiver_id, share, state FROM message_receivers
		 WHERE message_id = ? AND receiver_id = ?`,
		messageID.String(), recipient.String()).Scan(&rawMsg, &rawRcpt, &entry.Share, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no ledger entry for message %s recipient %s",
			interfaces.ErrNotFound, messageID, recipient)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry: %w", err)
	}
	entry.MessageID = interfaces.MessageID(rawMsg)
	entry.Recipient = interfaces.UserID(rawRcpt)
	entry.State = ledger.State(state)
	return &entry, nil
}

func (s *SQLite) UpdateEntry(ctx context.Context, entry *ledger.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE message_receivers SET share = ?, state = ? WHERE message_id = ? AND receiver_id = ?`,
		entry.Share, int(entry.State), entry.MessageID.String(), entry.Recipient.String())
	if err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: no ledger entry for message %s recipient %s",
			interfaces.ErrNotFound, entry.MessageID, entry.Recipient)
	}
	return nil
}

func (s *SQLite) DeleteEntry(ctx context.Context, messageID interfaces.MessageID, recipient interfaces.UserID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM message_receivers WHERE message_id = ? AND receiver_id = ?`,
		messageID.String(), recipient.String())
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: no ledger entry for message %s recipient %s",
			interfaces.ErrNotFound, messageID, recipient)
	}
	return nil
}

func (s *SQLite) EntriesFor(ctx context.Context, recipient interfaces.UserID) ([]*ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, receiver_id, share, state FROM message_receivers WHERE receiver_id = ?`,
		recipient.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		var rawMsg, rawRcpt string
		var state int
		if err := rows.Scan(&rawMsg, &rawRcpt, &entry.Share, &state); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.MessageID = interfaces.MessageID(rawMsg)
		entry.Recipient = interfaces.UserID(rawRcpt)
		entry.State = ledger.State(state)
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (s *SQLite) ReceivedShares(ctx context.Context, messageID interfaces.MessageID) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT share FROM message_receivers WHERE message_id = ? AND state = ?`,
		messageID.String(), int(ledger.StateReceived))
	if err != nil {
		return nil, fmt.Errorf("failed to query received shares: %w", err)
	}
	defer rows.Close()

	var shares [][]byte
	for rows.Next() {
		var share []byte
		if err := rows.Scan(&share); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*interfaces.Message, error) {
	var msg interfaces.Message
	var rawID, rawSender string
	var encrypted int
	var validTill *int64
	var createdAt int64

	err := row.Scan(&rawID, &rawSender, &msg.Filename, &encrypted,
		&msg.Threshold, &msg.ConfirmedCount, &validTill, &createdAt)
	if err != nil {
		return nil, err
	}

	msg.ID = interfaces.MessageID(rawID)
	msg.Sender = interfaces.UserID(rawSender)
	msg.IsEncrypted = encrypted != 0
	msg.CreatedAt = time.Unix(createdAt, 0)
	if validTill != nil {
		t := time.Unix(*validTill, 0)
		msg.ValidTill = &t
	}
	return &msg, nil
}
