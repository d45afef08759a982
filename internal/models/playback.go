package models

import "time"

// PlaybackState is owned by the playback controller. Renderers receive copies.
type PlaybackState struct {
	CurrentIndex         int
	IsPlaying            bool
	SpeedMultiplier      float64
	LastAdvanceTimestamp time.Time
}

// ComparisonState describes the secondary sequence shown beside the primary one.
type ComparisonState struct {
	Active       bool
	SecondaryID  string
	CurrentIndex int
}
