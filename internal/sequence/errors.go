package sequence

import "errors"

var (
	// ErrMetadataUnavailable means metadata.json was missing, unreadable or
	// inconsistent. The store degrades to a synthetic placeholder sequence.
	ErrMetadataUnavailable = errors.New("sequence metadata unavailable")

	// ErrFrameUnavailable means a single frame could not be loaded. Only that
	// slot is affected.
	ErrFrameUnavailable = errors.New("frame unavailable")

	// ErrNotLoaded is returned by Get for ids the store does not hold.
	ErrNotLoaded = errors.New("sequence not loaded")
)
