package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/app"
	"github.com/Rorical/stepscope/internal/sequence"
)

var (
	renderTarget  target
	renderOpts    app.ExportOptions
	renderCompare target
	renderLayers  struct {
		diff, latent, graph, panels bool
		diffGamma, latentGamma      float64
	}
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write composited frames as PNG files",
	Long: `Render a range of steps through the same pipeline as the player,
with the chosen overlays, and write one PNG per step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ws, err := openWorkspace()
		if err != nil {
			return err
		}
		ctx := context.Background()

		if renderOpts.SequenceID, err = ws.Resolve(renderTarget.sequence, renderTarget.selection()); err != nil {
			return err
		}
		if renderCompare.sequence != "" || renderCompare.theme != "" || renderCompare.mode != "" {
			if renderOpts.CompareID, err = ws.Resolve(renderCompare.sequence, renderCompare.selection()); err != nil {
				return err
			}
		}
		if renderTarget.sequence == "" {
			renderOpts.Caption = ws.Catalog.Label(renderTarget.selection())
		}

		o := ws.Overlays()
		o.Diff, o.Latent = renderLayers.diff, renderLayers.latent
		o.Graph, o.Panels = renderLayers.graph, renderLayers.panels
		if renderLayers.diffGamma > 0 {
			o.SetDiffIntensity(renderLayers.diffGamma)
		}
		if renderLayers.latentGamma > 0 {
			o.SetLatentIntensity(renderLayers.latentGamma)
		}
		renderOpts.Overlays = o

		paths, err := ws.Export(ctx, renderOpts)
		if err != nil {
			return err
		}
		if pr, err := ws.Store.Progress(renderOpts.SequenceID); err == nil && pr.Failed > 0 {
			fmt.Printf("%d of %d frames were unavailable and drawn as placeholders\n", pr.Failed, pr.Total)
		}
		if seq, ok := ws.Store.Active(sequence.Primary); ok && seq.Degraded {
			fmt.Println("metadata unavailable, steps are synthetic")
		}
		fmt.Printf("Wrote %d frames to %s\n", len(paths), renderOpts.Dir)
		return nil
	},
}

func init() {
	renderTarget.register(renderCmd)
	f := renderCmd.Flags()
	f.StringVar(&renderCompare.sequence, "compare", "", "sequence shown side by side")
	f.StringVar(&renderCompare.theme, "compare-theme", "", "catalog theme shown side by side")
	f.StringVar(&renderCompare.mode, "compare-mode", "", "catalog mode shown side by side")
	f.StringVarP(&renderOpts.Dir, "out", "o", "frames", "output directory")
	f.IntVar(&renderOpts.From, "from", 0, "first step")
	f.IntVar(&renderOpts.To, "to", -1, "last step, -1 for the final step")
	f.BoolVar(&renderLayers.diff, "diff", false, "pixel difference heatmap")
	f.BoolVar(&renderLayers.latent, "latent", false, "latent proxy heatmap")
	f.BoolVar(&renderLayers.graph, "graph", true, "intensity graph")
	f.BoolVar(&renderLayers.panels, "panels", true, "metadata panels and legends")
	f.Float64Var(&renderLayers.diffGamma, "diff-intensity", 0, "pixel heatmap intensity (0.25-10)")
	f.Float64Var(&renderLayers.latentGamma, "latent-intensity", 0, "latent heatmap intensity (0.25-10)")
	rootCmd.AddCommand(renderCmd)
}
