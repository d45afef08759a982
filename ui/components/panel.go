package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/stepscope/internal/models"
	"github.com/Rorical/stepscope/internal/render"
	"github.com/Rorical/stepscope/ui/styles"
)

// RenderMetadata shows the sequence panel next to the surface.
func RenderMetadata(title string, seq *models.Sequence, index int, width int) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(styles.TitleStyle().Render(title) + "\n")
	}
	if seq == nil {
		b.WriteString(styles.PlaceholderStyle().Render("no sequence"))
		return styles.PanelStyle(width).Render(b.String())
	}

	lines := render.Describe(seq, index)
	b.WriteString(styles.ValueStyle().Render(lines[0]))
	for _, l := range lines[1:] {
		b.WriteString("\n" + styles.LabelStyle().Render(l))
	}
	if seq.NegativePrompt != "" {
		b.WriteString("\n" + styles.LabelStyle().Render("negative: "+seq.NegativePrompt))
	}
	if seq.Degraded {
		b.WriteString("\n" + styles.DegradedStyle().Render("metadata unavailable, synthetic steps"))
	}
	if seq.Ready && seq.Frame(index) == nil {
		reason := "loading"
		if seq.FrameStatus(index) == models.FrameFailed {
			reason = "frame unavailable"
		}
		b.WriteString("\n" + styles.PlaceholderStyle().Render(reason))
	}
	return styles.PanelStyle(width).Render(b.String())
}

// RenderLegend shows a ramp swatch and the current map maximum.
func RenderLegend(l render.Legend, width int) string {
	const swatch = 16
	var bar strings.Builder
	for i := 0; i < swatch; i++ {
		c := l.Ramp.At(float64(i) / float64(swatch-1))
		bar.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(hex(c.R, c.G, c.B))).
			Render("█"))
	}
	value := styles.PlaceholderStyle().Render("max -")
	if l.Available {
		value = styles.ValueStyle().Render(fmt.Sprintf("max %.1f", l.Max))
	}
	return styles.PanelStyle(width).Render(styles.LabelStyle().Render(l.Label) + "\n" + bar.String() + " " + value)
}

// RenderIntensities shows the heatmap gamma exponents.
func RenderIntensities(o render.Overlays, width int) string {
	on := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	lines := []string{
		fmt.Sprintf("diff   %-3s  gamma %.2f", on(o.Diff), o.DiffIntensity),
		fmt.Sprintf("latent %-3s  gamma %.2f", on(o.Latent), o.LatentIntensity),
		fmt.Sprintf("graph  %-3s  panels %s", on(o.Graph), on(o.Panels)),
	}
	return styles.PanelStyle(width).Render(styles.LabelStyle().Render(strings.Join(lines, "\n")))
}
