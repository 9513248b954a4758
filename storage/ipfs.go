package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// IPFSStore implements a blob store on an IPFS node's Files API (MFS).
// Plain content addressing cannot serve the escrow contract - a message's
// blob is overwritten in place at reconstruction, so blobs are kept under
// stable MFS paths keyed by message ID instead.
type IPFSStore struct {
	shell       *shell.Shell
	host        string
	port        string
	rootDir     string
	log         *slog.Logger
	locationURI string
}

// NewIPFSStore creates an IPFS blob store connected to the node at host:port.
// Blobs are written under rootDir in the node's MFS.
func NewIPFSStore(host, port, rootDir string, log *slog.Logger) (*IPFSStore, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	rootDir = "/" + strings.Trim(rootDir, "/")
	if rootDir == "/" {
		rootDir = "/escrow"
	}

	return &IPFSStore{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		rootDir:     rootDir,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s", apiURL, rootDir),
	}, nil
}

// Fetch retrieves the blob for a message from the node's MFS.
// Returns ErrBlobNotFound if no blob exists, ErrBackendUnavailable if the
// node is not accessible.
func (b *IPFSStore) Fetch(ctx context.Context, id interfaces.MessageID) ([]byte, error) {
	start := time.Now()
	path := b.getPath(id)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") {
			b.log.Debug("Blob not found in IPFS",
				slog.String("path", path),
				slog.String("message_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read IPFS response: %w", err)
	}

	b.log.Debug("Fetched blob from IPFS",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes or overwrites the blob for a message in the node's MFS.
func (b *IPFSStore) Store(ctx context.Context, id interfaces.MessageID, data []byte) error {
	path := b.getPath(id)

	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	err := b.shell.FilesWrite(ctx, path, bytes.NewReader(data),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return fmt.Errorf("failed to write to IPFS: %w", err)
	}

	b.log.Debug("Stored blob in IPFS",
		slog.String("path", path),
		slog.String("messageID", id.String()),
		slog.Int("size", len(data)))

	return nil
}

// Available checks if the IPFS node is reachable.
func (b *IPFSStore) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this store.
func (b *IPFSStore) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this store.
func (b *IPFSStore) LocationURI() string {
	return b.locationURI
}

func (b *IPFSStore) getPath(id interfaces.MessageID) string {
	return b.rootDir + "/" + id.String()
}
