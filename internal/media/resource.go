package media

import (
	"io"
	"time"
)

// Resource is a servable media file. Reads are positional, so one handle never
// carries a cursor that concurrent readers could disturb.
type Resource interface {
	io.ReaderAt
	io.Closer
	Name() string
	ModTime() time.Time
	Size() int64
}

// ensure interface satisfaction
var (
	_ Resource = (*FileResource)(nil)
)
