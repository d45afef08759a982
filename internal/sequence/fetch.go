package sequence

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/Rorical/stepscope/internal/models"
)

// Slot names the role a sequence plays in the viewer.
type Slot int

const (
	Primary Slot = iota
	Secondary
)

func (s Slot) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

// LoadRequest identifies one load of one sequence into one slot. Completions
// carry it back so the store can drop responses for superseded requests.
type LoadRequest struct {
	ID         string
	SequenceID string
	Slot       Slot
}

func newRequest(slot Slot, id string) LoadRequest {
	return LoadRequest{ID: uuid.NewString(), SequenceID: id, Slot: slot}
}

// Completion is the result of one asynchronous fetch.
type Completion interface {
	LoadRequest() LoadRequest
}

// MetadataResult carries metadata for a request. On failure Metadata is nil,
// Err wraps ErrMetadataUnavailable and FallbackSteps sizes the placeholder.
type MetadataResult struct {
	Request       LoadRequest
	Metadata      *models.Metadata
	FallbackSteps int
	Err           error
}

func (r MetadataResult) LoadRequest() LoadRequest { return r.Request }

// FrameResult carries one decoded frame, or an error wrapping ErrFrameUnavailable.
type FrameResult struct {
	Request LoadRequest
	Index   int
	Image   *image.RGBA
	Err     error
}

func (r FrameResult) LoadRequest() LoadRequest { return r.Request }

// FetchConfig tunes Fetch.
type FetchConfig struct {
	Workers       int // concurrent frame decoders (>=1)
	FallbackSteps int // frame count attempted when metadata is unavailable
}

// Fetch loads metadata and then every frame of req.SequenceID, emitting one
// completion per resource. The metadata completion is always emitted before
// any frame completion. emit is called from several goroutines. Fetch never
// touches a Store; callers decide on which goroutine completions are applied.
func Fetch(ctx context.Context, src Source, req LoadRequest, cfg FetchConfig, emit func(Completion)) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.FallbackSteps <= 0 {
		cfg.FallbackSteps = DefaultFallbackSteps
	}

	meta, err := src.Metadata(ctx, req.SequenceID)
	if err == nil {
		err = ValidateMetadata(meta)
	}
	n := cfg.FallbackSteps
	if err != nil {
		meta = nil
		err = fmt.Errorf("%w: %s: %v", ErrMetadataUnavailable, req.SequenceID, err)
	} else {
		n = len(meta.Steps)
	}
	emit(MetadataResult{Request: req, Metadata: meta, FallbackSteps: cfg.FallbackSteps, Err: err})

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				img, err := src.Frame(ctx, req.SequenceID, i)
				if err != nil {
					emit(FrameResult{
						Request: req,
						Index:   i,
						Err:     fmt.Errorf("%w: %s step %d: %v", ErrFrameUnavailable, req.SequenceID, i, err),
					})
					continue
				}
				emit(FrameResult{Request: req, Index: i, Image: ToRGBA(img)})
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}
