package components

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// RenderSurface draws img into cols x rows terminal cells. Every cell holds
// two vertically stacked pixels as an upper half block.
func RenderSurface(img *image.RGBA, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	small := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := small.RGBAAt(x, 2*y)
			bottom := small.RGBAAt(x, 2*y+1)
			b.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(hex(top.R, top.G, top.B))).
				Background(lipgloss.Color(hex(bottom.R, bottom.G, bottom.B))).
				Render("▀"))
		}
		if y < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SurfaceCells returns the largest square pixel area that fits in width x
// height cells, as a cell count.
func SurfaceCells(width, height int) (cols, rows int) {
	side := min(width, height*2)
	if side < 2 {
		return 0, 0
	}
	return side, side / 2
}

func hex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
