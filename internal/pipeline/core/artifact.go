package core

import (
	"time"

	"github.com/tvforge/tvforge/internal/models"
)

// ArtifactType identifies the type of content in an artifact.
type ArtifactType string

const (
	// ArtifactTypeCatalog is the tabular channel catalog.
	ArtifactTypeCatalog ArtifactType = "catalog"

	// ArtifactTypePlaylist is the aggregated playlist.
	ArtifactTypePlaylist ArtifactType = "playlist"

	// ArtifactTypeFragments is the per-channel fragment directory.
	ArtifactTypeFragments ArtifactType = "fragments"

	// ArtifactTypeBackup is a timestamped copy of a prior catalog.
	ArtifactTypeBackup ArtifactType = "backup"
)

// Artifact represents a file output produced by a pipeline phase.
type Artifact struct {
	// ID is a unique identifier for this artifact.
	ID models.ULID

	// Type identifies the content type.
	Type ArtifactType

	// FilePath is the path to the artifact file or directory.
	FilePath string

	// CreatedBy is the stage ID that created this artifact.
	CreatedBy string

	// RecordCount is the number of records in the artifact.
	RecordCount int

	// CreatedAt is when the artifact was created.
	CreatedAt time.Time
}

// NewArtifact creates a new artifact of the given type.
func NewArtifact(artifactType ArtifactType, createdBy string) Artifact {
	return Artifact{
		ID:        models.NewULID(),
		Type:      artifactType,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}

// WithFilePath sets the file path for the artifact.
func (a Artifact) WithFilePath(path string) Artifact {
	a.FilePath = path
	return a
}

// WithRecordCount sets the record count for the artifact.
func (a Artifact) WithRecordCount(count int) Artifact {
	a.RecordCount = count
	return a
}
