package ports

import "github.com/bft-labs/sleeponlan/internal/domain"

// ConfigStore provides the persisted listening port.
type ConfigStore interface {
	// Load returns the stored configuration. A missing source is created
	// with the default port; a malformed or unreadable one yields a
	// *domain.ConfigError.
	Load() (domain.Configuration, error)
}
