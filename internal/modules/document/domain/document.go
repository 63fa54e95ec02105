package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "docshelf/internal/platform/errors"
)

// Letter is the page size assumed when a page declares no usable media box.
var Letter = PageSize{Width: 612, Height: 792}

// PageSize is measured in PDF points.
type PageSize struct {
	Width  float64
	Height float64
}

func (s PageSize) Valid() bool {
	return s.Width > 0 && s.Height > 0 && !math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}

// Info is what a caller learns about a document without keeping it open.
type Info struct {
	Path      string
	Title     string
	HasTitle  bool
	PageCount int
	// Page is the zero-based page Size describes.
	Page int
	Size PageSize
}

// CleanTitle normalizes embedded metadata; blank titles count as absent.
func CleanTitle(raw string) (string, bool) {
	title := strings.Join(strings.Fields(raw), " ")
	return title, title != ""
}

// CheckPage validates a zero-based page index against a page count.
func CheckPage(page, count int) error {
	if page < 0 || page >= count {
		return fmt.Errorf("%w: page %d outside 0..%d", apperrors.ErrInvalidInput, page, count-1)
	}
	return nil
}

// Glyph is one positioned run of text as it appears in a content stream.
// Y grows upward, as in PDF user space.
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Lines groups glyphs sharing a baseline into lines and orders them top to
// bottom. Within a line, stream order is kept; a horizontal gap wider than a
// quarter of the font size becomes a space.
func Lines(glyphs []Glyph) []string {
	type line struct {
		y    float64
		text strings.Builder
		end  float64
		size float64
	}
	var lines []*line
	var cur *line
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		tolerance := math.Max(g.FontSize*0.3, 1)
		if cur == nil || math.Abs(cur.y-g.Y) > tolerance {
			cur = &line{y: g.Y, end: g.X, size: g.FontSize}
			lines = append(lines, cur)
		} else if g.W > 0 && g.X-cur.end > math.Max(cur.size, g.FontSize)*0.25 && !strings.HasSuffix(cur.text.String(), " ") {
			cur.text.WriteByte(' ')
		}
		cur.text.WriteString(g.S)
		if g.W > 0 {
			cur.end = g.X + g.W
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		text := strings.TrimRight(l.text.String(), " ")
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}
