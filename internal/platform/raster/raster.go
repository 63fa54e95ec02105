// Package raster turns grayscale page images into terminal text art.
package raster

import (
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// ramp runs from paper to ink.
var ramp = []rune(" .:-=+*#%@")

// CellAspect is the height of a terminal cell divided by its width.
const CellAspect = 2.0

// Fit returns the largest cols x rows box of terminal cells that keeps the
// page aspect ratio inside maxCols x maxRows. Both results are at least 1.
func Fit(pageWidth, pageHeight float64, maxCols, maxRows int) (int, int) {
	if maxCols < 1 || maxRows < 1 {
		return 1, 1
	}
	if pageWidth <= 0 || pageHeight <= 0 {
		return maxCols, maxRows
	}
	// Height of the page in cells when it spans maxCols columns.
	rows := int(math.Round(float64(maxCols) * pageHeight / pageWidth / CellAspect))
	if rows <= maxRows {
		return maxCols, max(rows, 1)
	}
	cols := int(math.Round(float64(maxRows) * pageWidth / pageHeight * CellAspect))
	return max(min(cols, maxCols), 1), maxRows
}

// Shade resamples img to cols x rows and maps each sample onto the ramp.
func Shade(img *image.Gray, cols, rows int) []string {
	if img == nil || cols < 1 || rows < 1 || img.Bounds().Empty() {
		return nil
	}
	small := image.NewGray(image.Rect(0, 0, cols, rows))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)
	lines := make([]string, rows)
	var sb strings.Builder
	for y := 0; y < rows; y++ {
		sb.Reset()
		for x := 0; x < cols; x++ {
			ink := 255 - int(small.GrayAt(x, y).Y)
			sb.WriteRune(ramp[ink*(len(ramp)-1)/255])
		}
		lines[y] = sb.String()
	}
	return lines
}
