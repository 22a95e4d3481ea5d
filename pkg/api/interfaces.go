// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/koshadb/pkg/kosha"
	"github.com/ssargent/koshadb/pkg/semantics"
)

// Lexicon is the read side of a kosha as used by the HTTP handlers.
// *kosha.Kosha implements it.
type Lexicon interface {
	ContainsKey(key string) bool
	ContainsPrefix(prefix string) bool
	GetAllPadas(key string) ([]semantics.Pada, error)
	KeysWithPrefix(prefix string, limit int) []string
	Len() int
	Records() uint64
	Manifest() kosha.Manifest
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves lexicon until ctx is cancelled
	StartServer(ctx context.Context, lexicon Lexicon, config ServerConfig, logger logrus.FieldLogger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
