package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Rorical/stepscope/internal/models"
)

// ErrChangeMapUnavailable is returned while a map's frames are not both
// loaded. It is an expected transient state during progressive load.
var ErrChangeMapUnavailable = errors.New("change map unavailable")

// LatentConfig sets the latent proxy resolution. Both values are tunable
// defaults without a derivation behind them.
type LatentConfig struct {
	Grid   int `json:"grid" yaml:"grid"`
	Stride int `json:"stride" yaml:"stride"`
}

// DefaultLatentConfig returns a 64x64 grid sampled every 4th pixel.
func DefaultLatentConfig() LatentConfig {
	return LatentConfig{Grid: 64, Stride: 4}
}

func (c *LatentConfig) defaults() {
	d := DefaultLatentConfig()
	if c.Grid <= 0 {
		c.Grid = d.Grid
	}
	if c.Stride <= 0 {
		c.Stride = d.Stride
	}
}

type cacheKey struct {
	seq   string
	kind  models.ChangeKind
	index int
}

// Analyzer memoises change maps and intensity series.
type Analyzer struct {
	mu       sync.Mutex
	latent   LatentConfig
	maps     map[cacheKey]*models.ChangeMap
	series   map[string]*Series
	owners   map[string]*models.Sequence
	computed int
	logger   *slog.Logger
}

// New creates an Analyzer.
func New(latent LatentConfig, logger *slog.Logger) *Analyzer {
	latent.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		latent: latent,
		maps:   make(map[cacheKey]*models.ChangeMap),
		series: make(map[string]*Series),
		owners: make(map[string]*models.Sequence),
		logger: logger,
	}
}

// PixelDiff returns the pixel change map from frame i-1 to frame i.
func (a *Analyzer) PixelDiff(seq *models.Sequence, i int) (*models.ChangeMap, error) {
	return a.changeMap(seq, models.PixelChange, i)
}

// Latent returns the latent proxy map from frame i-1 to frame i.
func (a *Analyzer) Latent(seq *models.Sequence, i int) (*models.ChangeMap, error) {
	return a.changeMap(seq, models.LatentChange, i)
}

func (a *Analyzer) changeMap(seq *models.Sequence, kind models.ChangeKind, i int) (*models.ChangeMap, error) {
	if seq == nil || i <= 0 || i >= seq.Len() {
		return nil, fmt.Errorf("%w: %s transition to %d", ErrChangeMapUnavailable, kind, i)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.changeMapLocked(seq, kind, i)
}

func (a *Analyzer) changeMapLocked(seq *models.Sequence, kind models.ChangeKind, i int) (*models.ChangeMap, error) {
	a.claimLocked(seq)
	k := cacheKey{seq: seq.ID, kind: kind, index: i}
	if m, ok := a.maps[k]; ok {
		return m, nil
	}

	prev, cur := seq.Frame(i-1), seq.Frame(i)
	if prev == nil || cur == nil {
		return nil, fmt.Errorf("%w: %s %s transition to %d", ErrChangeMapUnavailable, seq.ID, kind, i)
	}

	var m *models.ChangeMap
	switch kind {
	case models.LatentChange:
		values, peak := LatentDiff(prev, cur, a.latent.Grid, a.latent.Stride)
		m = newMap(seq.ID, i, kind, a.latent.Grid, a.latent.Grid, values, peak)
	default:
		values, w, h, peak := PixelDiff(prev, cur)
		m = newMap(seq.ID, i, kind, w, h, values, peak)
	}
	a.maps[k] = m
	a.computed++
	return m, nil
}

// claimLocked drops cached data when a different Sequence value shows up
// under an id that is already cached.
func (a *Analyzer) claimLocked(seq *models.Sequence) {
	if owner, ok := a.owners[seq.ID]; ok && owner != seq {
		a.invalidateLocked(seq.ID)
	}
	a.owners[seq.ID] = seq
}

// Invalidate drops every cached map and series for a sequence.
func (a *Analyzer) Invalidate(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidateLocked(id)
	a.logger.Debug("change cache invalidated", "sequence", id)
}

func (a *Analyzer) invalidateLocked(id string) {
	for k := range a.maps {
		if k.seq == id {
			delete(a.maps, k)
		}
	}
	delete(a.series, id)
	delete(a.owners, id)
}

// Computations reports how many maps have been computed, cache hits excluded.
func (a *Analyzer) Computations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.computed
}
