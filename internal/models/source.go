package models

import "fmt"

// SourceKind names a channel acquisition strategy.
type SourceKind string

const (
	// SourceTabular reads a delimited file of channel records.
	SourceTabular SourceKind = "tabular"
	// SourceRemotePlaylist fetches one or more playlists over HTTP.
	SourceRemotePlaylist SourceKind = "remote_playlist"
	// SourceLocalPlaylist parses playlist files from disk.
	SourceLocalPlaylist SourceKind = "local_playlist"
	// SourceHybrid merges every configured origin, tolerating partial
	// failure.
	SourceHybrid SourceKind = "hybrid"
	// SourceAutomatic resolves to a concrete kind from what the
	// configuration actually provides.
	SourceAutomatic SourceKind = "automatic"
)

// Source describes one concrete place channels come from. Exactly the
// fields relevant to Kind are populated.
type Source struct {
	Kind         SourceKind
	TabularFile  string
	URL          string
	Path         string
	PlaylistURLs []string
	LocalFiles   []string
}

// Label returns the provenance string recorded on channels loaded from
// this source, used by filter exemptions and logging.
func (s Source) Label() string {
	switch s.Kind {
	case SourceTabular:
		return s.TabularFile
	case SourceRemotePlaylist:
		if s.URL != "" {
			return s.URL
		}
		return "remote_playlist"
	case SourceLocalPlaylist:
		if s.Path != "" {
			return s.Path
		}
		return "local_playlist"
	case SourceHybrid:
		return "hybrid"
	default:
		return string(s.Kind)
	}
}

func (s Source) String() string {
	return fmt.Sprintf("%s(%s)", s.Kind, s.Label())
}
