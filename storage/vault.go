package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// VaultStore implements a blob store using HashiCorp Vault's KV v2 engine.
// Payload bytes are base64-encoded into the secret data, one secret per
// message ID.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault blob store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault access token
//   - mountPath: Vault KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "escrow")
//   - log: structured logger
func NewVaultStore(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// Fetch retrieves the blob for a message from Vault.
func (b *VaultStore) Fetch(ctx context.Context, id interfaces.MessageID) ([]byte, error) {
	start := time.Now()
	path := b.getSecretPath(id)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			slog.String("message_id", id.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Blob not found in Vault",
			slog.String("path", path),
			slog.String("message_id", id.String()))
		return nil, interfaces.ErrBlobNotFound
	}

	// KV v2 wraps the stored fields in a "data" map.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}

	payload, ok := data["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("payload key not found in Vault data")
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Vault payload: %w", err)
	}

	b.log.Debug("Fetched blob from Vault",
		slog.String("message_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return raw, nil
}

// Store writes or overwrites the blob for a message in Vault.
func (b *VaultStore) Store(ctx context.Context, id interfaces.MessageID, data []byte) error {
	start := time.Now()
	path := b.getSecretPath(id)

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"payload": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, secretData); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			slog.String("message_id", id.String()),
			"err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored blob in Vault",
		slog.String("message_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks if the Vault server is initialized and unsealed.
func (b *VaultStore) Available(ctx context.Context) bool {
	health, err := b.client.Sys().HealthWithContext(ctx)
	if err != nil {
		b.log.Debug("Vault store unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// Name returns a unique identifier for this store.
func (b *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s", b.mountPath)
}

// LocationURI returns the URI that identifies this store.
func (b *VaultStore) LocationURI() string {
	return b.locationURI
}

func (b *VaultStore) getSecretPath(id interfaces.MessageID) string {
	return fmt.Sprintf("%s/data/%s/%s", b.mountPath, b.dataPath, id.String())
}
