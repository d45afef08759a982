package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Rorical/stepscope/internal/models"
)

const (
	lineHeight = 14
	pad        = 6
	legendBarW = 96
	legendBarH = 8
)

var (
	textColor     = color.RGBA{235, 235, 235, 255}
	degradedColor = color.RGBA{255, 110, 90, 255}
	panelBG       = image.NewUniform(color.RGBA{0, 0, 0, 170})
)

// Legend describes one active heatmap for display.
type Legend struct {
	Label string
	Ramp  Ramp
	// Max is the current map's maximum magnitude. Available is false when
	// no map exists for the current index.
	Max       float32
	Available bool
}

// Legends returns one entry per enabled heatmap for the primary sequence.
func (p *Pipeline) Legends(in Input) []Legend {
	var out []Legend
	add := func(label string, kind models.ChangeKind, ramp Ramp) {
		l := Legend{Label: label, Ramp: ramp}
		if in.Primary.Frame(in.Playback.CurrentIndex) != nil {
			if m, err := p.changeMap(in.Primary, kind, in.Playback.CurrentIndex); err == nil {
				l.Max, l.Available = m.Max, true
			}
		}
		out = append(out, l)
	}
	if in.Overlays.Diff {
		add("pixel diff", models.PixelChange, PixelRamp)
	}
	if in.Overlays.Latent {
		add("latent proxy", models.LatentChange, LatentRamp)
	}
	return out
}

// Describe returns the panel lines for seq at index i.
func Describe(seq *models.Sequence, i int) []string {
	if seq == nil {
		return []string{"no sequence"}
	}
	lines := []string{seq.ID}
	if seq.Prompt != "" {
		lines = append(lines, seq.Prompt)
	}
	if i >= 0 && i < seq.Len() {
		st := seq.Steps[i]
		lines = append(lines,
			fmt.Sprintf("step %d/%d  t=%d", i+1, seq.Len(), st.Timestep),
			fmt.Sprintf("noise %.3f  cfg %.1f  seed %s", st.NoiseVariance, seq.GuidanceScale, seedString(seq.Seed)),
		)
	}
	return lines
}

func seedString(seed *int64) string {
	if seed == nil {
		return "-"
	}
	return strconv.FormatInt(*seed, 10)
}

func (p *Pipeline) drawPanels(dst *image.RGBA, in Input, panes []pane) {
	for n, pn := range panes {
		var lines []string
		if n == 0 && in.Caption != "" {
			lines = append(lines, in.Caption)
		}
		lines = append(lines, Describe(pn.seq, pn.index)...)
		degraded := pn.seq != nil && pn.seq.Degraded
		if degraded {
			lines = append(lines, "DEGRADED: synthetic steps")
		}
		drawTextBox(dst, pn.box, lines, degraded)
	}

	legends := p.Legends(in)
	bottom := p.Height
	if in.Overlays.Graph {
		bottom = p.graphRect().Min.Y
	}
	primary := panes[0].box
	for i := len(legends) - 1; i >= 0; i-- {
		bottom = drawLegend(dst, primary, bottom, legends[i])
	}
}

// drawTextBox writes lines in the top-left corner of box, truncating to the
// box width.
func drawTextBox(dst *image.RGBA, box image.Rectangle, lines []string, degraded bool) {
	maxChars := (box.Dx() - 4*pad) / basicfont.Face7x13.Advance
	if maxChars < 4 {
		return
	}
	w := 0
	for i, l := range lines {
		lines[i] = truncate(l, maxChars)
		w = max(w, textWidth(lines[i]))
	}
	bg := image.Rect(box.Min.X+pad, box.Min.Y+pad, box.Min.X+3*pad+w, box.Min.Y+2*pad+len(lines)*lineHeight)
	draw.Draw(dst, bg, panelBG, image.Point{}, draw.Over)
	for i, l := range lines {
		c := textColor
		if degraded && i == len(lines)-1 {
			c = degradedColor
		}
		drawText(dst, bg.Min.X+pad, bg.Min.Y+pad+(i+1)*lineHeight-3, l, c)
	}
}

// drawLegend draws a ramp bar and label ending at y=bottom in the
// bottom-right of box and returns the top edge it used.
func drawLegend(dst *image.RGBA, box image.Rectangle, bottom int, l Legend) int {
	label := l.Label + " max -"
	if l.Available {
		label = fmt.Sprintf("%s max %.1f", l.Label, l.Max)
	}
	w := max(textWidth(label), legendBarW)
	h := lineHeight + legendBarH + 3*pad
	bg := image.Rect(box.Max.X-w-3*pad, bottom-h-pad, box.Max.X-pad, bottom-pad)
	draw.Draw(dst, bg, panelBG, image.Point{}, draw.Over)

	x := bg.Min.X + pad
	y := bg.Min.Y + pad
	for i := 0; i < legendBarW; i++ {
		c := l.Ramp.At(float64(i) / float64(legendBarW-1))
		for j := 0; j < legendBarH; j++ {
			if (image.Point{X: x + i, Y: y + j}).In(dst.Bounds()) {
				dst.SetRGBA(x+i, y+j, c)
			}
		}
	}
	drawText(dst, x, y+legendBarH+lineHeight, label, textColor)
	return bg.Min.Y
}

func drawText(dst *image.RGBA, x, y int, s string, c color.RGBA) {
	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 200}),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y + 1)},
	}
	shadow.DrawString(s)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
