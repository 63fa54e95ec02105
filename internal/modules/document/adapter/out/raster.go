package out

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"rsc.io/pdf"

	"docshelf/internal/modules/document/domain"
)

// maxCanvas caps the intermediate page canvas, in pixels per side.
const maxCanvas = 2000

// rasterize paints filled rectangles and text of one page onto a white
// canvas at one pixel per point, then scales it to width x height.
func rasterize(content pdf.Content, size domain.PageSize, width, height int) *image.Gray {
	cw := clamp(int(math.Ceil(size.Width)), 1, maxCanvas)
	ch := clamp(int(math.Ceil(size.Height)), 1, maxCanvas)
	sx := float64(cw) / size.Width
	sy := float64(ch) / size.Height

	canvas := image.NewGray(image.Rect(0, 0, cw, ch))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for _, r := range content.Rect {
		rect := image.Rect(
			int(math.Floor(r.Min.X*sx)), ch-int(math.Ceil(r.Max.Y*sy)),
			int(math.Ceil(r.Max.X*sx)), ch-int(math.Floor(r.Min.Y*sy)),
		).Canon().Intersect(canvas.Bounds())
		if !rect.Empty() {
			draw.Draw(canvas, rect, image.Black, image.Point{}, draw.Src)
		}
	}

	drawer := &font.Drawer{Dst: canvas, Src: image.Black, Face: basicfont.Face7x13}
	lastX, lastY := math.NaN(), math.NaN()
	for _, t := range content.Text {
		// Glyphs without widths repeat their origin; let the drawer advance.
		if t.X != lastX || t.Y != lastY {
			drawer.Dot = fixed.P(int(t.X*sx), ch-int(t.Y*sy))
		}
		drawer.DrawString(t.S)
		lastX, lastY = t.X, t.Y
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
