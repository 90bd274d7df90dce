package photos

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// LocalBackend writes images into a directory served under /fotos/.
type LocalBackend struct {
	dir       string
	urlPrefix string
}

// NewLocalBackend creates dir if needed. References are returned as
// "fotos/<key>" so they resolve against the static route.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating photos dir: %w", err)
	}
	return &LocalBackend{dir: dir, urlPrefix: "fotos"}, nil
}

// Dir returns the directory served as static files.
func (b *LocalBackend) Dir() string { return b.dir }

func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	target := filepath.Join(b.dir, filepath.Base(key))
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path.Join(b.urlPrefix, filepath.Base(key)), nil
}

func (b *LocalBackend) Check(_ context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}
