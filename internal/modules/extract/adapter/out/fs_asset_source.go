package out

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	extractout "docshelf/internal/modules/extract/port/out"
	apperrors "docshelf/internal/platform/errors"
)

// FSAssetSource serves assets from an fs.FS, usually the embedded bundle or
// an os.DirFS override.
type FSAssetSource struct {
	fsys fs.FS
}

func NewFSAssetSource(fsys fs.FS) extractout.AssetSource {
	return &FSAssetSource{fsys: fsys}
}

// NewDirAssetSource serves assets from a directory on disk.
func NewDirAssetSource(dir string) extractout.AssetSource {
	return &FSAssetSource{fsys: os.DirFS(dir)}
}

func (s *FSAssetSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrAssetNotFound, name)
	}
	f, err := s.fsys.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", apperrors.ErrAssetNotFound, name)
		}
		return nil, fmt.Errorf("open asset %q: %w", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat asset %q: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %q is a directory", apperrors.ErrAssetNotFound, name)
	}
	return f, nil
}
