package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/config"
	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/internal/render"
	"github.com/Rorical/stepscope/internal/sequence"
)

// Workspace is the set of components shared by the player and the batch
// commands, all rooted at one assets directory.
type Workspace struct {
	Settings config.Viewer
	Assets   fs.FS
	Source   sequence.Source
	Catalog  *catalog.Catalog
	Store    *sequence.Store
	Analyzer *analysis.Analyzer
	Pipeline *render.Pipeline
	Logger   *slog.Logger
}

// OpenWorkspace wires the store, analyzer and pipeline over settings.Assets.
func OpenWorkspace(settings config.Viewer, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWorkspace(os.DirFS(settings.Assets), settings, logger)
}

// NewWorkspace is OpenWorkspace over an arbitrary file system.
func NewWorkspace(assets fs.FS, settings config.Viewer, logger *slog.Logger) (*Workspace, error) {
	cat, err := catalog.Load(assets)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	an := analysis.New(analysis.LatentConfig{Grid: settings.LatentGrid, Stride: settings.LatentStride}, logger)
	store := sequence.NewStore(sequence.WithLogger(logger), sequence.WithEvict(an.Invalidate))
	return &Workspace{
		Settings: settings,
		Assets:   assets,
		Source:   sequence.NewDirSource(assets),
		Catalog:  cat,
		Store:    store,
		Analyzer: an,
		Pipeline: render.New(settings.SurfaceWidth, settings.SurfaceHeight, an),
		Logger:   logger,
	}, nil
}

// FetchConfig returns the loader settings.
func (w *Workspace) FetchConfig() sequence.FetchConfig {
	return sequence.FetchConfig{Workers: w.Settings.Workers, FallbackSteps: sequence.DefaultFallbackSteps}
}

// Overlays returns the default overlays with the configured intensities.
func (w *Workspace) Overlays() render.Overlays {
	o := render.DefaultOverlays()
	o.SetDiffIntensity(w.Settings.DiffIntensity)
	o.SetLatentIntensity(w.Settings.LatentIntensity)
	return o
}

// Candidates lists catalog ids followed by any other sequence directory found
// under the assets root.
func (w *Workspace) Candidates() []string {
	ids := w.Catalog.SequenceIDs()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	found, err := sequence.Sequences(w.Assets)
	if err != nil {
		w.Logger.Warn("scan assets", "error", err)
		return ids
	}
	for _, id := range found {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// Resolve maps a sequence id or a catalog selection to a sequence id.
func (w *Workspace) Resolve(id string, sel catalog.Selection) (string, error) {
	if id != "" {
		return id, nil
	}
	if sel.Theme == "" && sel.Mode == "" {
		sel = w.Catalog.First()
	}
	if sel.Theme == "" {
		sel.Theme = w.Catalog.First().Theme
	}
	if sel.Mode == "" {
		sel.Mode = w.Catalog.First().Mode
	}
	return w.Catalog.SequenceID(sel)
}

// Load fetches id into the primary slot and waits for every frame.
func (w *Workspace) Load(ctx context.Context, id string) (*models.Sequence, error) {
	return sequence.LoadSync(ctx, w.Store, w.Source, sequence.Primary, id, w.FetchConfig())
}
