// Package render composites the player surface: base frames, heatmap
// overlays, the intensity graph and the text panels.
package render

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/Rorical/stepscope/internal/analysis"
	"github.com/Rorical/stepscope/internal/models"
)

// Default surface size and heatmap blend factor.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
	DefaultAlpha  = 0.85
)

var background = color.RGBA{16, 16, 20, 255}

// Input is everything one render pass reads. It is assembled on the tick
// and never mutated by the pipeline.
type Input struct {
	Primary    *models.Sequence
	Secondary  *models.Sequence
	Playback   models.PlaybackState
	Comparison models.ComparisonState
	Overlays   Overlays
	// Caption is an optional heading such as the theme and mode names.
	Caption string
}

// Pipeline draws onto a fixed size surface.
type Pipeline struct {
	Width  int
	Height int
	Alpha  float64

	analyzer *analysis.Analyzer
	scaler   draw.Scaler
}

// New creates a pipeline reading change data from an. Non-positive sizes
// fall back to the default surface.
func New(width, height int, an *analysis.Analyzer) *Pipeline {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if an == nil {
		an = analysis.New(analysis.DefaultLatentConfig(), nil)
	}
	return &Pipeline{
		Width:    width,
		Height:   height,
		Alpha:    DefaultAlpha,
		analyzer: an,
		scaler:   draw.ApproxBiLinear,
	}
}

type pane struct {
	seq   *models.Sequence
	index int
	box   image.Rectangle
	fit   image.Rectangle
}

// Render runs one pass: clear, base frames, pixel overlay, latent overlay,
// intensity graph, then panels and legends.
func (p *Pipeline) Render(in Input) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	panes := p.layout(in)
	for i := range panes {
		p.drawBase(dst, &panes[i])
	}
	if in.Overlays.Diff {
		for _, pn := range panes {
			p.drawHeatmap(dst, pn, models.PixelChange, in.Overlays.DiffIntensity, PixelRamp)
		}
	}
	if in.Overlays.Latent {
		for _, pn := range panes {
			p.drawHeatmap(dst, pn, models.LatentChange, in.Overlays.LatentIntensity, LatentRamp)
		}
	}
	if in.Overlays.Graph {
		p.drawGraph(dst, in.Primary, in.Playback.CurrentIndex)
	}
	if in.Overlays.Panels {
		p.drawPanels(dst, in, panes)
	}
	return dst
}

func (p *Pipeline) layout(in Input) []pane {
	full := image.Rect(0, 0, p.Width, p.Height)
	primary := pane{seq: in.Primary, index: in.Playback.CurrentIndex, box: full}
	if !in.Comparison.Active {
		return []pane{primary}
	}
	mid := p.Width / 2
	primary.box = image.Rect(0, 0, mid, p.Height)
	secondary := pane{
		seq:   in.Secondary,
		index: in.Comparison.CurrentIndex,
		box:   image.Rect(mid, 0, p.Width, p.Height),
	}
	return []pane{primary, secondary}
}

func (p *Pipeline) drawBase(dst *image.RGBA, pn *pane) {
	frame := pn.seq.Frame(pn.index)
	if frame == nil {
		pn.fit = pn.box
		p.drawPlaceholder(dst, pn.box, placeholderReason(pn.seq, pn.index))
		return
	}
	pn.fit = fitRect(frame.Bounds(), pn.box)
	p.scaler.Scale(dst, pn.fit, frame, frame.Bounds(), draw.Src, nil)
}

func placeholderReason(seq *models.Sequence, i int) string {
	switch {
	case seq == nil:
		return "no sequence"
	case !seq.Ready:
		return "loading metadata"
	case seq.Len() == 0:
		return "empty sequence"
	case seq.FrameStatus(i) == models.FrameFailed:
		return fmt.Sprintf("step %d unavailable", i)
	}
	return fmt.Sprintf("loading step %d", i)
}

func (p *Pipeline) drawPlaceholder(dst *image.RGBA, box image.Rectangle, reason string) {
	const cell = 16
	light := color.RGBA{40, 40, 48, 255}
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if ((x-box.Min.X)/cell+(y-box.Min.Y)/cell)%2 == 0 {
				dst.SetRGBA(x, y, light)
			}
		}
	}
	w := textWidth(reason)
	x := box.Min.X + (box.Dx()-w)/2
	y := box.Min.Y + box.Dy()/2
	drawText(dst, x, y, reason, color.RGBA{200, 200, 200, 255})
}

// fitRect scales src to the largest rectangle inside box with the same
// aspect ratio, centered.
func fitRect(src, box image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	bw, bh := box.Dx(), box.Dy()
	if sw <= 0 || sh <= 0 || bw <= 0 || bh <= 0 {
		return image.Rectangle{Min: box.Min, Max: box.Min}
	}
	w, h := bw, sh*bw/sw
	if h > bh {
		w, h = sw*bh/sh, bh
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x := box.Min.X + (bw-w)/2
	y := box.Min.Y + (bh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

func (p *Pipeline) changeMap(seq *models.Sequence, kind models.ChangeKind, i int) (*models.ChangeMap, error) {
	if kind == models.LatentChange {
		return p.analyzer.Latent(seq, i)
	}
	return p.analyzer.PixelDiff(seq, i)
}

// drawHeatmap blends the change map into the pane's frame area. Unavailable
// maps are skipped silently.
func (p *Pipeline) drawHeatmap(dst *image.RGBA, pn pane, kind models.ChangeKind, intensity float64, ramp Ramp) {
	if pn.seq.Frame(pn.index) == nil {
		return
	}
	m, err := p.changeMap(pn.seq, kind, pn.index)
	if err != nil || m.Max == 0 || m.Width == 0 || m.Height == 0 {
		return
	}

	colors := make([]color.RGBA, len(m.Values))
	hot := make([]bool, len(m.Values))
	for i, v := range m.Values {
		t, ok := m.Normalized(v, intensity)
		if !ok {
			continue
		}
		colors[i] = ramp.At(t)
		hot[i] = true
	}

	fit := pn.fit.Intersect(dst.Bounds())
	fw, fh := pn.fit.Dx(), pn.fit.Dy()
	for y := fit.Min.Y; y < fit.Max.Y; y++ {
		cy := (y - pn.fit.Min.Y) * m.Height / fh
		o := dst.PixOffset(fit.Min.X, y)
		for x := fit.Min.X; x < fit.Max.X; x++ {
			cx := (x - pn.fit.Min.X) * m.Width / fw
			if c := cy*m.Width + cx; hot[c] {
				addPixel(dst.Pix[o:o+4], colors[c], p.Alpha)
			}
			o += 4
		}
	}
}
