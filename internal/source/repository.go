// Package source provides the channel repositories: tabular files,
// remote playlists, local playlist files, and the hybrid aggregate that
// fuses them with per-source provenance.
package source

import (
	"context"
	"errors"

	"github.com/tvforge/tvforge/internal/models"
)

// Repository is the single capability every channel origin implements.
// There is no base class; the factory returns the variant matching the
// configured source.
type Repository interface {
	// Kind returns the source kind this repository serves.
	Kind() models.SourceKind

	// Initialize prepares the repository. Remote variants fetch and
	// buffer their content here so Channels never blocks on the network.
	Initialize(ctx context.Context) error

	// Channels returns every loaded channel record in source order.
	Channels(ctx context.Context) ([]*models.Channel, error)

	// Count returns the number of loaded channels.
	Count(ctx context.Context) (int, error)
}

// Repository errors.
var (
	// ErrNotInitialized is returned when Channels or Count is called
	// before Initialize.
	ErrNotInitialized = errors.New("repository not initialized")

	// ErrAllSourcesFailed is returned by the hybrid repository when
	// every configured origin failed to load.
	ErrAllSourcesFailed = errors.New("all configured sources failed")
)
