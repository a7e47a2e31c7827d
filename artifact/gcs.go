package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// GCS stores artifacts in a Google Storage bucket under an optional prefix,
// using application default credentials.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gs:// store requires a bucket name")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &GCS{client: client, bucket: client.Bucket(bucket), prefix: prefix}, nil
}

func (g *GCS) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	rdr, err := g.bucket.Object(joinPrefix(g.prefix, path)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs object %s: %w", path, fs.ErrNotExist)
	} else if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return rdr, nil
}

// Create returns the object writer directly: GCS only finalizes the upload on
// Close, which gives the same all-or-nothing visibility as the filesystem
// driver.
func (g *GCS) Create(ctx context.Context, path string) (io.WriteCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	w := g.bucket.Object(joinPrefix(g.prefix, path)).NewWriter(ctx)
	return &gcsWriter{Writer: w, cancel: cancel}, nil
}

func (g *GCS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.bucket.Object(joinPrefix(g.prefix, path)).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	} else if err != nil {
		return false, pfx.Err(err)
	}

	return true, nil
}

func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	out := make([]string, 0)

	it := g.bucket.Objects(ctx, &storage.Query{Prefix: joinPrefix(g.prefix, prefix)})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		name := attrs.Name
		if g.prefix != "" {
			name = strings.TrimPrefix(name, g.prefix+"/")
		}
		out = append(out, name)
	}
	sort.Strings(out)

	return out, nil
}

type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

// Abort cancels the upload; per the storage docs, cancelling the writer's
// context before Close discards the object.
func (w *gcsWriter) Abort() {
	w.cancel()
	w.Writer.Close()
}
