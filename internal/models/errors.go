package models

import "errors"

var (
	// ErrMissingName marks a channel without a usable display name.
	ErrMissingName = errors.New("missing channel name")
	// ErrMissingStreamURL marks a channel without a stream URL.
	ErrMissingStreamURL = errors.New("missing stream URL")
	// ErrBadStreamScheme marks a stream URL outside http/https.
	ErrBadStreamScheme = errors.New("stream URL must be http or https")
	// ErrNoChannels marks a source that yielded nothing.
	ErrNoChannels = errors.New("source produced no channels")
)
