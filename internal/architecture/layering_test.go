package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulesPrefix = "docshelf/internal/modules/"

var layers = []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"}

// imports returns the module-internal imports of every non-test Go file
// under root, keyed by slash-separated file path.
func imports(t *testing.T, root string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()
	out := map[string][]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		slash := filepath.ToSlash(path)
		for _, imp := range node.Imports {
			p := strings.Trim(imp.Path.Value, `"`)
			if strings.HasPrefix(p, modulesPrefix) {
				out[slash] = append(out[slash], p)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for file, deps := range imports(t, filepath.Join("..", "modules")) {
		module, layer := moduleName(file), detectLayer(file)
		if module == "" || layer == "" {
			continue
		}
		for _, dep := range deps {
			if violatesLayerRule(module, layer, dep) {
				t.Fatalf("forbidden import in %s (%s): %s", file, layer, dep)
			}
		}
	}
}

// The presentation layer only sees the shelf through its DTOs.
func TestUIImportsOnlyShelfDTO(t *testing.T) {
	t.Parallel()
	for file, deps := range imports(t, filepath.Join("..", "ui")) {
		for _, dep := range deps {
			if dep != modulesPrefix+"shelf/dto" {
				t.Fatalf("ui file %s imports %s", file, dep)
			}
		}
	}
}

// The plugin binary serves the document module and nothing else.
func TestPluginImportsOnlyDocumentModule(t *testing.T) {
	t.Parallel()
	for file, deps := range imports(t, filepath.Join("..", "..", "plugins")) {
		for _, dep := range deps {
			if !strings.HasPrefix(dep, modulesPrefix+"document/") {
				t.Fatalf("plugin file %s imports %s", file, dep)
			}
		}
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range layers {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func isPortIn(path string) bool {
	return strings.Contains(path, "/port/in/") || strings.HasSuffix(path, "/port/in")
}

func isDTO(path string) bool {
	return strings.Contains(path, "/dto/") || strings.HasSuffix(path, "/dto")
}

func violatesLayerRule(module, layer, dep string) bool {
	if !strings.HasPrefix(dep, modulesPrefix+module+"/") {
		// Other modules are reachable through their inbound port and DTOs only.
		return !isPortIn(dep) && !isDTO(dep)
	}

	switch layer {
	case "adapter/in":
		return !isPortIn(dep) && !isDTO(dep)
	case "usecase":
		return strings.Contains(dep, "/adapter/")
	case "service":
		return strings.Contains(dep, "/adapter/") || strings.Contains(dep, "/usecase/")
	case "domain", "port/out":
		return strings.Contains(dep, "/adapter/") || strings.Contains(dep, "/usecase/") || strings.Contains(dep, "/service/")
	default:
		return false
	}
}
