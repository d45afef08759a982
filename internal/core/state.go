package core

import (
	"sort"
	"sync"
	"time"

	"github.com/Rorical/stepscope/internal/sequence"
)

// LoadState tracks the fetches the loader is running
type LoadState struct {
	mu       sync.RWMutex
	inFlight map[string]inFlightLoad // by request id
	started  int
	finished int
}

type inFlightLoad struct {
	req   sequence.LoadRequest
	since time.Time
}

func NewLoadState() *LoadState {
	return &LoadState{
		inFlight: make(map[string]inFlightLoad),
	}
}

// Begin records a fetch. It reports false when the request is already
// being fetched.
func (ls *LoadState) Begin(req sequence.LoadRequest, now time.Time) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if _, ok := ls.inFlight[req.ID]; ok {
		return false
	}
	ls.inFlight[req.ID] = inFlightLoad{req: req, since: now}
	ls.started++
	return true
}

// Finish removes a fetch and returns how long it ran.
func (ls *LoadState) Finish(req sequence.LoadRequest, now time.Time) time.Duration {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	l, ok := ls.inFlight[req.ID]
	if !ok {
		return 0
	}
	delete(ls.inFlight, req.ID)
	ls.finished++
	return now.Sub(l.since)
}

// InFlight returns the running requests ordered by sequence id.
func (ls *LoadState) InFlight() []sequence.LoadRequest {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	out := make([]sequence.LoadRequest, 0, len(ls.inFlight))
	for _, l := range ls.inFlight {
		out = append(out, l.req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out
}

func (ls *LoadState) Count() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.inFlight)
}

// Totals returns how many fetches were started and finished.
func (ls *LoadState) Totals() (started, finished int) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return ls.started, ls.finished
}
