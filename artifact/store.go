// Package artifact resolves typed pipeline keys to storage paths and reads and
// writes those paths through a pluggable Store (local disk, memory, gs://,
// s3://).
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/carbocation/fishnet"
)

// Store is the minimal object-store surface used by the pipeline. Paths are
// slash separated and relative to the store root.
type Store interface {
	// Open returns an error satisfying errors.Is(err, fs.ErrNotExist) if the
	// path is absent.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Create returns a writer whose content becomes visible at path only once
	// Close returns nil.
	Create(ctx context.Context, path string) (io.WriteCloser, error)
	Exists(ctx context.Context, path string) (bool, error)
	// List returns every path beginning with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open selects a Store from a URI:
//
//	gs://bucket/prefix   Google Cloud Storage
//	s3://bucket/prefix   Amazon S3 (credentials from the default AWS chain)
//	mem://               process-local memory
//	anything else        a local directory
func Open(ctx context.Context, uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "gs://"):
		bucket, prefix := splitBucket(strings.TrimPrefix(uri, "gs://"))
		return NewGCS(ctx, bucket, prefix)
	case strings.HasPrefix(uri, "s3://"):
		bucket, prefix := splitBucket(strings.TrimPrefix(uri, "s3://"))
		return NewS3(ctx, S3Config{Bucket: bucket, Prefix: prefix})
	case strings.HasPrefix(uri, "mem://"):
		return NewMemory(), nil
	}

	return NewFilesystem(uri)
}

func splitBucket(rest string) (bucket, prefix string) {
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix
}

func joinPrefix(prefix, path string) string {
	if prefix == "" {
		return path
	}
	return prefix + "/" + strings.TrimPrefix(path, "/")
}

// OpenArtifact opens path and converts absence into a
// *fishnet.MissingArtifactError so callers can absorb it at the smallest
// unit of work.
func OpenArtifact(ctx context.Context, store Store, path string) (io.ReadCloser, error) {
	rc, err := store.Open(ctx, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &fishnet.MissingArtifactError{Path: path, Err: err}
	} else if err != nil {
		return nil, err
	}

	return rc, nil
}

// WriteFunc creates path, hands the writer to fn and closes it. The artifact
// is only committed if both fn and Close succeed.
func WriteFunc(ctx context.Context, store Store, path string, fn func(w io.Writer) error) error {
	w, err := store.Create(ctx, path)
	if err != nil {
		return err
	}

	if err := fn(w); err != nil {
		if a, ok := w.(aborter); ok {
			a.Abort()
		} else {
			w.Close()
		}
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return w.Close()
}

// aborter is implemented by writers that can discard pending content instead
// of committing it.
type aborter interface {
	Abort()
}
