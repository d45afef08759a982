// Package playback owns the player's current index and play/pause state.
// A Controller is driven from the render tick and is not safe for
// concurrent use.
package playback

import (
	"math"
	"time"

	"github.com/Rorical/stepscope/internal/models"
)

const (
	// BaseFPS is the playback rate at speed 1.0.
	BaseFPS = 30
	// MinSpeed and MaxSpeed bound the speed multiplier.
	MinSpeed = 0.1
	MaxSpeed = 3.0
)

// Controller is the Paused/Playing state machine.
type Controller struct {
	state   models.PlaybackState
	length  int
	baseFPS float64
}

// New creates a paused controller at index 0 for a sequence of length n.
// A non-positive fps falls back to BaseFPS.
func New(n int, fps float64) *Controller {
	if fps <= 0 {
		fps = BaseFPS
	}
	c := &Controller{
		state:   models.PlaybackState{SpeedMultiplier: 1},
		baseFPS: fps,
	}
	c.SetLength(n)
	return c
}

// State returns a copy of the playback state.
func (c *Controller) State() models.PlaybackState {
	return c.state
}

func (c *Controller) Index() int     { return c.state.CurrentIndex }
func (c *Controller) Playing() bool  { return c.state.IsPlaying }
func (c *Controller) Speed() float64 { return c.state.SpeedMultiplier }
func (c *Controller) Length() int    { return c.length }

// Interval is the target time between two advances at the current speed.
func (c *Controller) Interval() time.Duration {
	return time.Duration(float64(time.Second) / (c.baseFPS * c.state.SpeedMultiplier))
}

// Play starts playback. The advance timer starts at now.
func (c *Controller) Play(now time.Time) {
	if c.state.IsPlaying {
		return
	}
	c.state.IsPlaying = true
	c.state.LastAdvanceTimestamp = now
}

// Pause stops playback and keeps the current index.
func (c *Controller) Pause() {
	c.state.IsPlaying = false
}

// Toggle flips between Playing and Paused.
func (c *Controller) Toggle(now time.Time) {
	if c.state.IsPlaying {
		c.Pause()
		return
	}
	c.Play(now)
}

// Seek moves to index i, clamped to the sequence bounds. It does not change
// the play state.
func (c *Controller) Seek(i int) {
	c.state.CurrentIndex = c.clamp(i)
}

// Scrub is a user seek: it moves to i and pauses.
func (c *Controller) Scrub(i int) {
	c.Seek(i)
	c.Pause()
}

// Step moves delta frames with wrap-around and pauses.
func (c *Controller) Step(delta int) {
	if c.length == 0 {
		return
	}
	c.Scrub(mod(c.state.CurrentIndex+delta, c.length))
}

// Reset seeks to the first frame and pauses.
func (c *Controller) Reset() {
	c.Scrub(0)
}

// SetSpeed sets the speed multiplier clamped to [MinSpeed, MaxSpeed]. The
// advance timer is left untouched so the change applies on the next tick.
func (c *Controller) SetSpeed(m float64) {
	switch {
	case math.IsNaN(m) || m < MinSpeed:
		m = MinSpeed
	case m > MaxSpeed:
		m = MaxSpeed
	}
	c.state.SpeedMultiplier = m
}

// SetLength updates the sequence length and re-clamps the index.
func (c *Controller) SetLength(n int) {
	if n < 0 {
		n = 0
	}
	c.length = n
	c.state.CurrentIndex = c.clamp(c.state.CurrentIndex)
}

// Tick advances by one frame, looping at the end, when playing and the
// interval has elapsed since the last advance. It reports whether the index
// changed.
func (c *Controller) Tick(now time.Time) bool {
	if !c.state.IsPlaying || c.length == 0 {
		return false
	}
	if now.Sub(c.state.LastAdvanceTimestamp) < c.Interval() {
		return false
	}
	c.state.CurrentIndex = (c.state.CurrentIndex + 1) % c.length
	c.state.LastAdvanceTimestamp = now
	return true
}

func (c *Controller) clamp(i int) int {
	if c.length == 0 || i < 0 {
		return 0
	}
	if i >= c.length {
		return c.length - 1
	}
	return i
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
