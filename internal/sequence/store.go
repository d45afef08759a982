package sequence

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Rorical/stepscope/internal/models"
)

// Progress reports how far a sequence has loaded.
type Progress struct {
	SequenceID string
	Loaded     int
	Failed     int
	Total      int
}

// Fraction returns resolved slots over total, in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Loaded+p.Failed) / float64(p.Total)
}

// Done reports whether every slot is resolved.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Loaded+p.Failed == p.Total
}

// Store holds the resident sequences and which request currently owns each
// slot. All mutation goes through Begin and Apply; a single lock guards the
// maps so reads from render and writes from load completion may interleave.
type Store struct {
	mu        sync.Mutex
	sequences map[string]*models.Sequence
	owners    map[string]LoadRequest // request that populates each resident sequence
	active    map[Slot]LoadRequest
	deferred  map[string][]FrameResult

	logger     *slog.Logger
	onProgress func(Slot, Progress)
	onEvict    func(id string)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithProgress registers an observer called after every applied completion.
func WithProgress(fn func(Slot, Progress)) Option {
	return func(s *Store) { s.onProgress = fn }
}

// WithEvict registers a callback for sequences dropped from the store.
func WithEvict(fn func(id string)) Option {
	return func(s *Store) { s.onEvict = fn }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sequences: make(map[string]*models.Sequence),
		owners:    make(map[string]LoadRequest),
		active:    make(map[Slot]LoadRequest),
		deferred:  make(map[string][]FrameResult),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Begin makes id the active sequence of slot. It returns the request whose
// completions will populate the sequence and whether a fetch must be started;
// an id that is already resident is reused without refetching.
func (s *Store) Begin(slot Slot, id string) (LoadRequest, bool) {
	s.mu.Lock()
	prev, hadPrev := s.active[slot]

	var (
		req     LoadRequest
		fetch   bool
		evicted string
	)
	if owner, ok := s.owners[id]; ok {
		req = owner
	} else {
		req = newRequest(slot, id)
		s.sequences[id] = models.NewSequence(id)
		s.owners[id] = req
		fetch = true
	}
	s.active[slot] = req

	if hadPrev && prev.SequenceID != id && !s.referencedLocked(prev.SequenceID) {
		delete(s.sequences, prev.SequenceID)
		delete(s.owners, prev.SequenceID)
		delete(s.deferred, prev.SequenceID)
		evicted = prev.SequenceID
	}
	s.mu.Unlock()

	s.logger.Info("sequence selected", "slot", slot.String(), "sequence", id, "request", req.ID, "fetch", fetch)
	if evicted != "" {
		s.logger.Debug("sequence evicted", "sequence", evicted)
		if s.onEvict != nil {
			s.onEvict(evicted)
		}
	}
	return req, fetch
}

// Abort rolls back a request whose fetch could not be started, so a later
// Begin for the same id fetches again. Slots bound to req are unbound.
func (s *Store) Abort(req LoadRequest) {
	s.mu.Lock()
	if owner, ok := s.owners[req.SequenceID]; ok && owner.ID == req.ID {
		delete(s.sequences, req.SequenceID)
		delete(s.owners, req.SequenceID)
		delete(s.deferred, req.SequenceID)
	}
	for slot, r := range s.active {
		if r.ID == req.ID {
			delete(s.active, slot)
		}
	}
	s.mu.Unlock()
	s.logger.Info("sequence load aborted", "sequence", req.SequenceID, "request", req.ID)
}

func (s *Store) referencedLocked(id string) bool {
	for _, r := range s.active {
		if r.SequenceID == id {
			return true
		}
	}
	return false
}

// slotsLocked is the stale-response guard: a completion is only committed
// while some slot's active request is still the one that produced it. It
// returns those slots in order.
func (s *Store) slotsLocked(req LoadRequest) []Slot {
	var slots []Slot
	for _, slot := range []Slot{Primary, Secondary} {
		if r, ok := s.active[slot]; ok && r.ID == req.ID && r.SequenceID == req.SequenceID {
			slots = append(slots, slot)
		}
	}
	return slots
}

// Apply commits a completion. It reports false when the completion was stale
// or redundant and therefore discarded.
func (s *Store) Apply(c Completion) (Progress, bool) {
	req := c.LoadRequest()

	s.mu.Lock()
	slots := s.slotsLocked(req)
	if len(slots) == 0 {
		s.mu.Unlock()
		s.logger.Debug("stale completion dropped", "sequence", req.SequenceID, "request", req.ID)
		return Progress{SequenceID: req.SequenceID}, false
	}
	seq := s.sequences[req.SequenceID]

	var applied bool
	switch r := c.(type) {
	case MetadataResult:
		applied = s.applyMetadataLocked(seq, r)
		if applied {
			for _, fr := range s.deferred[seq.ID] {
				s.applyFrameLocked(seq, fr)
			}
			delete(s.deferred, seq.ID)
		}
	case FrameResult:
		if !seq.Ready {
			s.deferred[seq.ID] = append(s.deferred[seq.ID], r)
			s.mu.Unlock()
			return Progress{SequenceID: seq.ID}, true
		}
		applied = s.applyFrameLocked(seq, r)
	}
	p := progressOf(seq)
	s.mu.Unlock()

	if applied && s.onProgress != nil {
		for _, slot := range slots {
			s.onProgress(slot, p)
		}
	}
	return p, applied
}

func (s *Store) applyMetadataLocked(seq *models.Sequence, r MetadataResult) bool {
	if seq.Ready {
		return false
	}
	if r.Err != nil || r.Metadata == nil {
		err := r.Err
		if err == nil {
			err = ErrMetadataUnavailable
		}
		s.logger.Warn("metadata unavailable, using placeholder sequence", "sequence", seq.ID, "error", err)
		seq.Degraded = true
		seq.SetSteps(SyntheticSteps(r.FallbackSteps))
		return true
	}
	meta := r.Metadata
	seq.Prompt = meta.Prompt
	seq.NegativePrompt = meta.NegativePrompt
	seq.GuidanceScale = meta.GuidanceScale
	seq.Seed = meta.Seed
	seq.SetSteps(StepsFromMetadata(meta))
	return true
}

func (s *Store) applyFrameLocked(seq *models.Sequence, r FrameResult) bool {
	if r.Err != nil || r.Image == nil {
		err := r.Err
		if err == nil {
			err = ErrFrameUnavailable
		}
		s.logger.Warn("frame unavailable", "sequence", seq.ID, "step", r.Index, "error", err)
		return seq.MarkFailed(r.Index)
	}
	b := r.Image.Bounds()
	if seq.Width != 0 && (b.Dx() != seq.Width || b.Dy() != seq.Height) {
		s.logger.Warn("frame size mismatch",
			"sequence", seq.ID, "step", r.Index,
			"want", fmt.Sprintf("%dx%d", seq.Width, seq.Height),
			"got", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
		return seq.MarkFailed(r.Index)
	}
	return seq.SetFrame(r.Index, r.Image)
}

func progressOf(seq *models.Sequence) Progress {
	loaded, failed := seq.Counts()
	return Progress{SequenceID: seq.ID, Loaded: loaded, Failed: failed, Total: seq.Len()}
}

// Get returns a resident sequence.
func (s *Store) Get(id string) (*models.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	return seq, nil
}

// Active returns the sequence currently bound to slot.
func (s *Store) Active(slot Slot) (*models.Sequence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.active[slot]
	if !ok {
		return nil, false
	}
	seq, ok := s.sequences[req.SequenceID]
	return seq, ok
}

// ActiveID returns the id bound to slot, or "".
func (s *Store) ActiveID(slot Slot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[slot].SequenceID
}

// Progress returns the load progress of a resident sequence.
func (s *Store) Progress(id string) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.sequences[id]
	if !ok {
		return Progress{}, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	return progressOf(seq), nil
}

// LoadSync loads id into slot and blocks until every frame is resolved.
// Completions are applied on the calling goroutine, like the interactive
// player applies them on its tick.
func LoadSync(ctx context.Context, store *Store, src Source, slot Slot, id string, cfg FetchConfig) (*models.Sequence, error) {
	req, fetch := store.Begin(slot, id)
	if fetch {
		ch := make(chan Completion, 16)
		go func() {
			defer close(ch)
			Fetch(ctx, src, req, cfg, func(c Completion) { ch <- c })
		}()
		for c := range ch {
			store.Apply(c)
		}
	}
	seq, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	return seq, ctx.Err()
}
