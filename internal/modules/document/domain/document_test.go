package domain_test

import (
	"errors"
	"reflect"
	"testing"

	"docshelf/internal/modules/document/domain"
	apperrors "docshelf/internal/platform/errors"
)

func TestCleanTitle(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "Aviation  Handbook", want: "Aviation Handbook", ok: true},
		{raw: "  \t ", want: "", ok: false},
		{raw: "", want: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := domain.CleanTitle(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("CleanTitle(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCheckPage(t *testing.T) {
	t.Parallel()
	if err := domain.CheckPage(0, 3); err != nil {
		t.Fatalf("page 0 of 3: %v", err)
	}
	for _, page := range []int{-1, 3} {
		if err := domain.CheckPage(page, 3); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("page %d: expected invalid input, got %v", page, err)
		}
	}
}

func TestLinesGroupsByBaselineTopToBottom(t *testing.T) {
	t.Parallel()
	glyphs := []domain.Glyph{
		{X: 72, Y: 600, W: 6, FontSize: 12, S: "b"},
		{X: 78, Y: 600, W: 6, FontSize: 12, S: "y"},
		{X: 72, Y: 700, W: 10, FontSize: 18, S: "H"},
		{X: 82, Y: 700, W: 10, FontSize: 18, S: "i"},
		{X: 120, Y: 700, W: 10, FontSize: 18, S: "!"},
	}
	got := domain.Lines(glyphs)
	want := []string{"Hi !", "by"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesWithoutWidthsKeepStreamOrder(t *testing.T) {
	t.Parallel()
	glyphs := []domain.Glyph{
		{X: 72, Y: 700, FontSize: 18, S: "P"},
		{X: 72, Y: 700, FontSize: 18, S: "a"},
		{X: 72, Y: 700, FontSize: 18, S: "g"},
		{X: 72, Y: 700, FontSize: 18, S: "e"},
		{X: 72, Y: 500, FontSize: 18, S: " "},
	}
	got := domain.Lines(glyphs)
	if !reflect.DeepEqual(got, []string{"Page"}) {
		t.Fatalf("unexpected lines %q", got)
	}
}

func TestPageSizeValid(t *testing.T) {
	t.Parallel()
	if !domain.Letter.Valid() {
		t.Fatalf("letter must be valid")
	}
	if (domain.PageSize{Width: 0, Height: 10}).Valid() {
		t.Fatalf("zero width must be invalid")
	}
}
