package app

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/compare"
	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/internal/render"
	"github.com/Rorical/stepscope/internal/sequence"
)

// ExportOptions selects the frames written by Export.
type ExportOptions struct {
	SequenceID string
	// CompareID, when set, renders a second sequence side by side.
	CompareID string
	// From and To are inclusive step indices; a negative To means the last step.
	From, To int
	Overlays render.Overlays
	Caption  string
	Dir      string
}

// Export renders the selected steps and writes one PNG per step into
// opts.Dir. It returns the written paths.
func (w *Workspace) Export(ctx context.Context, opts ExportOptions) ([]string, error) {
	primary, err := w.Load(ctx, opts.SequenceID)
	if err != nil {
		return nil, err
	}
	var secondary *models.Sequence
	if opts.CompareID != "" {
		if secondary, err = sequence.LoadSync(ctx, w.Store, w.Source, sequence.Secondary, opts.CompareID, w.FetchConfig()); err != nil {
			return nil, err
		}
	}

	n := primary.Len()
	to := opts.To
	if to < 0 || to >= n {
		to = n - 1
	}
	from := max(opts.From, 0)
	if from > to {
		return nil, fmt.Errorf("empty step range %d..%d for %d steps", opts.From, opts.To, n)
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, err
	}

	var paths []string
	for i := from; i <= to; i++ {
		in := render.Input{
			Primary:  primary,
			Playback: models.PlaybackState{CurrentIndex: i, SpeedMultiplier: 1},
			Overlays: opts.Overlays,
			Caption:  opts.Caption,
		}
		if secondary != nil {
			in.Secondary = secondary
			in.Comparison = models.ComparisonState{
				Active:       true,
				SecondaryID:  secondary.ID,
				CurrentIndex: compare.Index(i, secondary.Len()),
			}
		}
		path := filepath.Join(opts.Dir, fmt.Sprintf("%s_%04d.png", primary.ID, i))
		if err := writePNG(path, w.Pipeline, in); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	w.Logger.Info("frames exported", "sequence", primary.ID, "from", from, "to", to, "dir", opts.Dir)
	return paths, nil
}

func writePNG(path string, p *render.Pipeline, in render.Input) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, p.Render(in)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Report loads id and builds its analysis report.
func (w *Workspace) Report(ctx context.Context, id string, percentile float64) (*analysis.Report, error) {
	seq, err := w.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.Analyzer.BuildReport(seq, percentile)
}
