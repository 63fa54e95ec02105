package slug_test

import (
	"testing"

	"docshelf/internal/platform/slug"
)

func TestMake(t *testing.T) {
	t.Parallel()
	if got := slug.Make("The Cosmic Context for Life"); got != "the-cosmic-context-for-life" {
		t.Fatalf("unexpected slug %q", got)
	}
	if got := slug.Make("  ../  "); got != "untitled" {
		t.Fatalf("expected untitled, got %q", got)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()
	if got := slug.FileName("The-Cosmic-Context-for-Life.pdf"); got != "the-cosmic-context-for-life.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := slug.FileName("../../etc/Passwd.PDF"); got != "passwd.pdf" {
		t.Fatalf("path components must be dropped, got %q", got)
	}
	if got := slug.FileName("README"); got != "readme" {
		t.Fatalf("unexpected file name %q", got)
	}
}
