// Package pdffixture writes small, structurally valid PDF files for tests.
package pdffixture

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Spec describes a fixture document. An empty Title omits the Info title.
type Spec struct {
	Title string
	Pages []string
	// Sizes overrides the letter MediaBox of individual zero-based pages.
	Sizes map[int][2]float64
}

// Bytes renders the document. Each page shows its heading line near the top.
func Bytes(spec Spec) []byte {
	pages := spec.Pages
	if len(pages) == 0 {
		pages = []string{""}
	}
	objs := map[int]string{}
	streams := map[int]string{}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}
	objs[1] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), len(pages))
	objs[3] = fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths())
	if spec.Title != "" {
		objs[4] = fmt.Sprintf("<< /Title (%s) /Producer (pdffixture) >>", escape(spec.Title))
	} else {
		objs[4] = "<< /Producer (pdffixture) >>"
	}
	for i, line := range pages {
		box := ""
		if size, ok := spec.Sizes[i]; ok {
			box = fmt.Sprintf(" /MediaBox [0 0 %g %g]", size[0], size[1])
		}
		objs[5+2*i] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", box, 6+2*i)
		streams[6+2*i] = fmt.Sprintf("BT /F1 18 Tf 72 700 Td (%s) Tj ET\n72 650 468 2 re f\n", escape(line))
	}

	total := 4 + 2*len(pages)
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, total+1)
	for num := 1; num <= total; num++ {
		offsets[num] = buf.Len()
		if body, ok := streams[num]; ok {
			fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n", num, len(body), body)
			continue
		}
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, objs[num])
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= total; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return buf.Bytes()
}

// Write stores the fixture under dir/name and returns its path.
func Write(t testing.TB, dir, name string, spec Spec) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Bytes(spec), 0o644); err != nil {
		t.Fatalf("write pdf fixture: %v", err)
	}
	return path
}

// widths gives every printable ASCII glyph the same advance so text
// extraction can find word gaps.
func widths() string {
	w := make([]string, 126-32+1)
	for i := range w {
		w[i] = "500"
	}
	return strings.Join(w, " ")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
