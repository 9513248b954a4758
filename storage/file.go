package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// FileStore implements a blob store on the local file system. Blobs live
// under a single payloads directory, one file per message ID.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file-backed blob store rooted at baseDir,
// creating the payloads directory if it does not exist.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	payloadDir := filepath.Join(baseDir, "payloads")
	if err := os.MkdirAll(payloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create payloads directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves the blob for a message. Returns ErrBlobNotFound if no blob
// has been stored under the ID.
func (b *FileStore) Fetch(ctx context.Context, id interfaces.MessageID) ([]byte, error) {
	filePath := b.getFilePath(id)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrBlobNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob file: %w", err)
	}

	b.log.Debug("Fetched blob from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes or overwrites the blob for a message.
func (b *FileStore) Store(ctx context.Context, id interfaces.MessageID, data []byte) error {
	filePath := b.getFilePath(id)

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write blob file: %w", err)
	}

	b.log.Debug("Stored blob in file",
		slog.String("path", filePath),
		slog.String("messageID", id.String()),
		slog.Int("size", len(data)))

	return nil
}

// Available checks if the store is accessible by verifying the base directory exists.
func (b *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (b *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this store.
func (b *FileStore) LocationURI() string {
	return b.locationURI
}

func (b *FileStore) getFilePath(id interfaces.MessageID) string {
	return filepath.Join(b.baseDir, "payloads", id.String())
}
