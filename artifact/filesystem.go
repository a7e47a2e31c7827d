package artifact

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/carbocation/fishnet"
	"github.com/carbocation/pfx"
)

// Filesystem stores artifacts under a local root directory. Writes go to a
// temporary file that is renamed into place on Close, so an interrupted run
// never leaves a truncated replicate table behind for a resumed run to trust.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if root == "" {
		root = "."
	}

	expanded, err := fishnet.ExpandHome(root)
	if err != nil {
		return nil, err
	}

	return &Filesystem{root: expanded}, nil
}

func (f *Filesystem) Root() string { return f.root }

func (f *Filesystem) pathFor(path string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(path))
	if strings.HasPrefix(clean, "../") || clean == ".." {
		return "", fmt.Errorf("path %s escapes the store root", path)
	}

	return filepath.Join(f.root, filepath.FromSlash(clean)), nil
}

func (f *Filesystem) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	p, err := f.pathFor(path)
	if err != nil {
		return nil, err
	}

	// Errors from os.Open already satisfy errors.Is(err, fs.ErrNotExist).
	return os.Open(p)
}

func (f *Filesystem) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	p, err := f.pathFor(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, pfx.Err(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &atomicFile{File: tmp, target: p}, nil
}

func (f *Filesystem) Exists(ctx context.Context, path string) (bool, error) {
	p, err := f.pathFor(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	}

	return false, pfx.Err(err)
}

func (f *Filesystem) List(ctx context.Context, prefix string) ([]string, error) {
	out := make([]string, 0)

	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(filepath.Base(key), ".tmp-") {
			return nil
		}
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, pfx.Err(err)
	}

	sort.Strings(out)

	return out, nil
}

type atomicFile struct {
	*os.File
	target string
}

func (a *atomicFile) Close() error {
	if err := a.File.Close(); err != nil {
		os.Remove(a.File.Name())
		return pfx.Err(err)
	}

	if err := os.Rename(a.File.Name(), a.target); err != nil {
		os.Remove(a.File.Name())
		return pfx.Err(err)
	}

	return nil
}

func (a *atomicFile) Abort() {
	a.File.Close()
	os.Remove(a.File.Name())
}
