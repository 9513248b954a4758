package repository

import (
	"fmt"
	"net/url"
	"strings"
)

// Open creates a Store from a location URI.
//
// Supported schemes:
//   - mem:// - in-memory store, for tests and development
//   - sqlite://path/to/db.sqlite - local SQLite database
func Open(locationURI string) (Store, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("invalid repository URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mem", "memory":
		return NewMemory(), nil
	case "sqlite":
		// Accept both sqlite:relative.db and sqlite://host/absolute forms.
		path := u.Opaque
		if path == "" {
			path = u.Host + u.Path
		}
		if path == "" {
			return nil, fmt.Errorf("sqlite URI must carry a database path")
		}
		return NewSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported repository scheme: %s", u.Scheme)
	}
}
