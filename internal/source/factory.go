package source

import (
	"fmt"
	"log/slog"

	"github.com/tvforge/tvforge/internal/config"
	"github.com/tvforge/tvforge/internal/httpclient"
	"github.com/tvforge/tvforge/internal/models"
)

// kindAliases maps deprecated source-kind spellings to the canonical
// kinds. Older configs used remote_m3u (and a remote_m3U variant).
var kindAliases = map[string]models.SourceKind{
	"csv":        models.SourceTabular,
	"local_m3u":  models.SourceLocalPlaylist,
	"remote_m3u": models.SourceRemotePlaylist,
	"remote_m3U": models.SourceRemotePlaylist,
}

// ResolveSource turns the configured channelsSource into a concrete
// Source variant. A URL literal behaves as a remote playlist;
// "automatic" picks hybrid when more than one input kind is configured,
// otherwise the single configured kind.
func ResolveSource(cfg *config.Config, logger *slog.Logger) (models.Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.IsURLSource() {
		return models.Source{Kind: models.SourceRemotePlaylist, URL: cfg.ChannelsSource}, nil
	}

	kind := models.SourceKind(cfg.ChannelsSource)
	if canonical, ok := kindAliases[cfg.ChannelsSource]; ok {
		logger.Warn("deprecated source kind, use the canonical name",
			slog.String("configured", cfg.ChannelsSource),
			slog.String("canonical", string(canonical)),
		)
		kind = canonical
	}

	if kind == models.SourceAutomatic {
		kind = autoKind(cfg)
		logger.Debug("automatic source resolution",
			slog.String("resolved", string(kind)),
		)
	}

	switch kind {
	case models.SourceTabular:
		if cfg.ChannelsFile == "" {
			return models.Source{}, fmt.Errorf("tabular source requires channelsFile")
		}
		return models.Source{Kind: kind, TabularFile: cfg.ResolvePath(cfg.ChannelsFile)}, nil

	case models.SourceRemotePlaylist:
		if len(cfg.PlaylistUrls) == 0 {
			return models.Source{}, fmt.Errorf("remote_playlist source requires playlistUrls")
		}
		if len(cfg.PlaylistUrls) > 1 {
			// Multiple URLs need the hybrid merge semantics.
			return models.Source{Kind: models.SourceHybrid, PlaylistURLs: cfg.PlaylistUrls}, nil
		}
		return models.Source{Kind: kind, URL: cfg.PlaylistUrls[0]}, nil

	case models.SourceLocalPlaylist:
		if len(cfg.LocalPlaylistFiles) == 0 {
			return models.Source{}, fmt.Errorf("local_playlist source requires localPlaylistFiles")
		}
		if len(cfg.LocalPlaylistFiles) > 1 {
			return models.Source{Kind: models.SourceHybrid, LocalFiles: cfg.LocalPlaylistFiles}, nil
		}
		return models.Source{Kind: kind, Path: cfg.ResolvePath(cfg.LocalPlaylistFiles[0])}, nil

	case models.SourceHybrid:
		src := models.Source{
			Kind:         kind,
			PlaylistURLs: cfg.PlaylistUrls,
			LocalFiles:   cfg.LocalPlaylistFiles,
			TabularFile:  cfg.ChannelsFile,
		}
		return src, nil

	default:
		return models.Source{}, fmt.Errorf("unsupported source kind %q", cfg.ChannelsSource)
	}
}

// autoKind inspects which inputs are configured and picks the matching
// kind. More than one input kind means hybrid.
func autoKind(cfg *config.Config) models.SourceKind {
	kinds := 0
	var resolved models.SourceKind
	if cfg.ChannelsFile != "" {
		kinds++
		resolved = models.SourceTabular
	}
	if len(cfg.PlaylistUrls) > 0 {
		kinds++
		resolved = models.SourceRemotePlaylist
	}
	if len(cfg.LocalPlaylistFiles) > 0 {
		kinds++
		resolved = models.SourceLocalPlaylist
	}
	if kinds != 1 {
		return models.SourceHybrid
	}
	return resolved
}

// Factory builds repositories for resolved sources. It carries the
// shared HTTP client and the config needed for path resolution and
// fetch limits.
type Factory struct {
	cfg    *config.Config
	client *httpclient.Client
	logger *slog.Logger
}

// NewFactory creates a repository factory.
func NewFactory(cfg *config.Config, client *httpclient.Client, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{cfg: cfg, client: client, logger: logger}
}

// ForSource returns the repository variant matching the source.
func (f *Factory) ForSource(src models.Source) (Repository, error) {
	switch src.Kind {
	case models.SourceTabular:
		return NewTabularRepository(src.TabularFile, f.logger), nil

	case models.SourceRemotePlaylist:
		return NewRemotePlaylistRepository(
			src.URL,
			f.client,
			f.cfg.FetchTimeout(),
			f.cfg.HTTP.MaxPlaylistBytes.Int64(),
			f.logger,
		), nil

	case models.SourceLocalPlaylist:
		return NewLocalPlaylistRepository(src.Path, f.logger), nil

	case models.SourceHybrid:
		var origins []Repository
		for _, url := range src.PlaylistURLs {
			origins = append(origins, NewRemotePlaylistRepository(
				url,
				f.client,
				f.cfg.FetchTimeout(),
				f.cfg.HTTP.MaxPlaylistBytes.Int64(),
				f.logger,
			))
		}
		for _, path := range src.LocalFiles {
			origins = append(origins, NewLocalPlaylistRepository(f.cfg.ResolvePath(path), f.logger))
		}
		if src.TabularFile != "" {
			origins = append(origins, NewTabularRepository(f.cfg.ResolvePath(src.TabularFile), f.logger))
		}
		return NewHybridRepository(origins, f.logger), nil

	default:
		return nil, fmt.Errorf("no repository for source kind %q", src.Kind)
	}
}
