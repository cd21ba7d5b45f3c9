package smartio

import (
	"context"
	"errors"
	"io"
)

var (
	ErrInvalidRange = errors.New("invalid range")
)

// RangedReader reads exactly count bytes starting at offset from an io.ReaderAt.
// Reads are positional, so several RangedReaders may share one source.
// Each Read returns at most chunkSize bytes and checks ctx first.
type RangedReader struct {
	ctx       context.Context
	reader    io.ReaderAt
	chunkSize int

	current int64
	end     int64 // exclusive
}

func NewRangedReader(ctx context.Context, reader io.ReaderAt, offset, count int64, chunkSize int) (*RangedReader, error) {
	if offset < 0 || count < 0 || chunkSize <= 0 {
		return nil, ErrInvalidRange
	}

	return &RangedReader{
		ctx:       ctx,
		reader:    reader,
		chunkSize: chunkSize,
		current:   offset,
		end:       offset + count,
	}, nil
}

// Remaining is the number of bytes still to be read.
func (r *RangedReader) Remaining() int64 {
	return r.end - r.current
}

func (r *RangedReader) Read(p []byte) (int, error) {
	if r.current >= r.end {
		return 0, io.EOF
	}

	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	if len(p) == 0 {
		return 0, nil
	}

	maxRead := min(int64(len(p)), int64(r.chunkSize), r.end-r.current)
	p = p[:maxRead]

	n, err := r.reader.ReadAt(p, r.current)
	r.current += int64(n)

	switch {
	case r.current >= r.end:
		// ReadAt may report io.EOF together with the last bytes of the source
		return n, io.EOF
	case errors.Is(err, io.EOF):
		// the source ended before the window did, e.g. the file was truncated
		return n, io.ErrUnexpectedEOF
	default:
		return n, err
	}
}
