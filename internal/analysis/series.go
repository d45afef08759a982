package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Rorical/stepscope/internal/models"
)

// Series is the mean pixel change of every transition of a sequence. Entry k
// describes the transition from frame k to frame k+1.
type Series struct {
	SequenceID string
	Values     []float64
	Valid      []bool
	Max        float64
}

// Len returns the number of transitions.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// IntensitySeries computes the series once every frame slot of seq is
// resolved. Transitions touching a failed frame are marked invalid.
func (a *Analyzer) IntensitySeries(seq *models.Sequence) (*Series, error) {
	if seq == nil || !seq.Resolved() {
		return nil, fmt.Errorf("%w: sequence still loading", ErrChangeMapUnavailable)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.claimLocked(seq)
	if s, ok := a.series[seq.ID]; ok {
		return s, nil
	}

	n := seq.Len() - 1
	if n < 0 {
		n = 0
	}
	s := &Series{
		SequenceID: seq.ID,
		Values:     make([]float64, n),
		Valid:      make([]bool, n),
	}
	for k := 0; k < n; k++ {
		m, err := a.changeMapLocked(seq, models.PixelChange, k+1)
		if errors.Is(err, ErrChangeMapUnavailable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		v := m.Mean()
		s.Values[k] = v
		s.Valid[k] = true
		if v > s.Max {
			s.Max = v
		}
	}
	a.series[seq.ID] = s
	return s, nil
}

// Percentile returns the p-th percentile (0-100) of the valid values using
// linear interpolation between closest ranks.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// CriticalSteps returns the frame indices whose incoming transition exceeds
// the given percentile of all valid transitions.
func CriticalSteps(s *Series, percentile float64) []int {
	if s.Len() == 0 {
		return nil
	}
	var valid []float64
	for k, v := range s.Values {
		if s.Valid[k] {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	threshold := Percentile(valid, percentile)
	var out []int
	for k, v := range s.Values {
		if s.Valid[k] && v > threshold {
			out = append(out, k+1)
		}
	}
	return out
}
