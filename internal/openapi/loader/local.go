package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// readFile reads a schema dump from disk, typically a saved swagger.json of
// an offline model service.
func readFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("schema loader: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// readFS reads a schema bundled into an fs.FS such as an embed or a
// testing/fstest map.
func readFS(ctx context.Context, files fs.FS, name string) ([]byte, error) {
	switch {
	case files == nil:
		return nil, errors.New("schema loader: no filesystem configured")
	case name == "":
		return nil, errors.New("schema loader: fs path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fs.ReadFile(files, name)
}
