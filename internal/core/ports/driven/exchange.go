package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/couchlab/internal/core/domain"
)

// DocumentCodec reads and writes documents in one file format.
type DocumentCodec interface {
	// Encode writes docs to w.
	Encode(w io.Writer, docs []domain.RawDoc) error

	// Decode reads documents from r.
	Decode(r io.Reader) ([]domain.RawDoc, error)
}

// CodecRegistry selects a codec by format.
type CodecRegistry interface {
	// Codec returns the codec for format or domain.ErrInvalidInput.
	Codec(format domain.ExportFormat) (DocumentCodec, error)
}

// DirWatcher reports files that appear in a directory.
type DirWatcher interface {
	// Watch sends the path of each created or rewritten file in dir with
	// the given extension until ctx is cancelled. Both channels are closed
	// when watching stops.
	Watch(ctx context.Context, dir, ext string) (<-chan string, <-chan error, error)
}
