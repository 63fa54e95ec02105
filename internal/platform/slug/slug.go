package slug

import (
	"path"
	"regexp"
	"strings"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

func Make(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}

// FileName turns a bundled resource name into a safe local file name. Any
// directory part is dropped and the extension is kept, lower-cased.
func FileName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	ext = strings.ToLower(nonAlphaNum.ReplaceAllString(strings.ToLower(ext), ""))
	if ext == "" {
		return Make(stem)
	}
	return Make(stem) + "." + ext
}
