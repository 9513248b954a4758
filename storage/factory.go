package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/thresholdshare/escrow-backend/interfaces"
)

// Factory creates blob stores from URI strings and aggregates multi-backend
// configurations for redundant storage.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a new factory instance.
func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{log: logger}
}

// StoreFor creates a blob store from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - mem:// - in-memory store, for tests and development
//   - file:// - local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node Files API storage
//   - vault:// - HashiCorp Vault KV v2 storage
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (f *Factory) StoreFor(locationURI string) (interfaces.BlobStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mem", "memory":
		return NewMemoryStore(), nil
	case "file":
		return f.createFileStore(u)
	case "s3":
		return f.createS3Store(u)
	case "ipfs":
		return f.createIPFSStore(u)
	case "vault":
		return f.createVaultStore(u)
	default:
		return nil, fmt.Errorf("unsupported storage scheme: %s", u.Scheme)
	}
}

// CreateMultiStore creates a multi-backend blob store from a list of
// location URIs. URIs that fail to produce a backend are skipped with a
// warning; at least one must succeed.
func (f *Factory) CreateMultiStore(locationURIs []string) (interfaces.BlobStore, error) {
	backends := make([]interfaces.BlobStore, 0, len(locationURIs))

	for _, uri := range locationURIs {
		backend, err := f.StoreFor(uri)
		if err != nil {
			f.log.Warn("Failed to create blob store",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid blob stores created")
	}

	if len(backends) == 1 {
		return backends[0], nil
	}

	return NewMultiStore(backends, f.log), nil
}

// createFileStore creates a filesystem store.
// URI format: file:///var/lib/escrow
func (f *Factory) createFileStore(u *url.URL) (interfaces.BlobStore, error) {
	f.log.Debug("Creating file store", slog.String("uri", u.String()))

	baseDir := u.Host + u.Path
	if baseDir == "" {
		return nil, fmt.Errorf("file URI must carry a base directory")
	}

	return NewFileStore(baseDir, f.log)
}

// createS3Store creates an S3 or S3-compatible store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket/path/?region=us-west-2&endpoint=custom.s3.com
func (f *Factory) createS3Store(u *url.URL) (interfaces.BlobStore, error) {
	f.log.Debug("Creating S3 store", slog.String("uri", u.String()))

	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("s3 URI must carry a bucket name")
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey, f.log)
}

// createIPFSStore creates an IPFS store.
// URI format: ipfs://host:port/rootdir
func (f *Factory) createIPFSStore(u *url.URL) (interfaces.BlobStore, error) {
	f.log.Debug("Creating IPFS store", slog.String("uri", u.String()))

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5001"
	}

	return NewIPFSStore(host, port, u.Path, f.log)
}

// createVaultStore creates a Vault store.
// URI format: vault://TOKEN@host:port/mount/path?tls=true
func (f *Factory) createVaultStore(u *url.URL) (interfaces.BlobStore, error) {
	f.log.Debug("Creating Vault store", slog.String("uri", u.String()))

	scheme := "https"
	if !parseBoolParam(u.Query().Get("tls"), true) {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	var token string
	if u.User != nil {
		token = u.User.Username()
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("vault URI must carry mount and data paths")
	}

	return NewVaultStore(address, token, parts[0], parts[1], f.log)
}

func parseBoolParam(value string, fallback bool) bool {
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return fallback
	}
}
