package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// MultiStore implements interfaces.BlobStore over several backends for
// redundancy. Writes go to every available backend; reads fall back through
// them in order until one has the blob.
type MultiStore struct {
	backends []interfaces.BlobStore
	log      *slog.Logger
}

// NewMultiStore creates a multi-backend blob store.
func NewMultiStore(backends []interfaces.BlobStore, logger *slog.Logger) *MultiStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiStore{
		backends: backends,
		log:      logger,
	}
}

// Fetch returns the blob from the first available backend that has it.
func (m *MultiStore) Fetch(ctx context.Context, id interfaces.MessageID) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable",
				slog.String("backend_name", backend.Name()),
				slog.String("message_id", id.String()))
			continue
		}

		data, err := backend.Fetch(ctx, id)
		if err == nil {
			m.log.Debug("Fetched blob",
				slog.String("backend_name", backend.Name()),
				slog.String("message_id", id.String()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to fetch from backend",
			slog.String("backend_name", backend.Name()),
			slog.String("message_id", id.String()),
			"err", err)
	}

	for _, err := range errs {
		// A unanimous miss is a plain not-found, not a backend failure.
		if !strings.Contains(err.Error(), interfaces.ErrBlobNotFound.Error()) {
			return nil, fmt.Errorf("all backends failed to fetch %s: %v", id, errs)
		}
	}
	return nil, interfaces.ErrBlobNotFound
}

// Store writes the blob to every available backend. It succeeds if at least
// one backend accepted the write.
func (m *MultiStore) Store(ctx context.Context, id interfaces.MessageID, data []byte) error {
	start := time.Now()
	var success bool
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			continue
		}

		if err := backend.Store(ctx, id, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}

		if !success {
			success = true
			m.log.Debug("Stored blob",
				slog.String("backend_name", backend.Name()),
				slog.String("message_id", id.String()),
				slog.Duration("duration", time.Since(start)))
		}
	}

	if !success {
		m.log.Error("All backends failed to store blob",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("all backends failed to store blob: %v", errs)
	}

	return nil
}

// Available reports whether any backend is available.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns a combined identifier for logging.
func (m *MultiStore) Name() string {
	names := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		names = append(names, backend.Name())
	}
	return "multi[" + strings.Join(names, ",") + "]"
}

// LocationURI returns the URIs of all aggregated backends.
func (m *MultiStore) LocationURI() string {
	uris := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		uris = append(uris, backend.LocationURI())
	}
	return strings.Join(uris, ",")
}
