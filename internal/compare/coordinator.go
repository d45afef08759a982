// Package compare drives the secondary sequence in side-by-side mode.
package compare

import "github.com/Rorical/stepscope/internal/models"

// Coordinator tracks the comparison state. Like the playback controller it
// is owned by the render tick.
type Coordinator struct {
	state models.ComparisonState
}

// New returns an inactive coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// Activate turns comparison on for id. needsLoad is true when id differs
// from the sequence already held, in which case the caller starts a load.
func (c *Coordinator) Activate(id string) (needsLoad bool) {
	needsLoad = id != c.state.SecondaryID
	c.state.SecondaryID = id
	c.state.Active = true
	if needsLoad {
		c.state.CurrentIndex = 0
	}
	return needsLoad
}

// Deactivate stops driving the secondary index. The secondary id is kept so
// reactivation is instant.
func (c *Coordinator) Deactivate() {
	c.state.Active = false
}

// SetSecondary switches the comparison sequence without changing whether
// comparison is active. It reports whether a load is needed.
func (c *Coordinator) SetSecondary(id string) (needsLoad bool) {
	if id == c.state.SecondaryID {
		return false
	}
	c.state.SecondaryID = id
	c.state.CurrentIndex = 0
	return true
}

// Sync derives the secondary index from the primary one. A shorter
// secondary holds on its last frame.
func (c *Coordinator) Sync(primaryIndex, secondaryLen int) int {
	if !c.state.Active {
		return c.state.CurrentIndex
	}
	c.state.CurrentIndex = Index(primaryIndex, secondaryLen)
	return c.state.CurrentIndex
}

// State returns a copy of the comparison state.
func (c *Coordinator) State() models.ComparisonState {
	return c.state
}

// Active reports whether comparison mode is on.
func (c *Coordinator) Active() bool { return c.state.Active }

// SecondaryID returns the comparison sequence id, which may be set while
// comparison is inactive.
func (c *Coordinator) SecondaryID() string { return c.state.SecondaryID }

// Index clamps primaryIndex into a sequence of length n.
func Index(primaryIndex, n int) int {
	i := min(primaryIndex, n-1)
	if i < 0 {
		return 0
	}
	return i
}
