package media

import (
	"context"
	"os"
	"time"
)

// FileResource provides positional access to one opened file.
// Size and ModTime are taken from the opened handle, never from the path,
// so they always describe the bytes ReadAt returns.
type FileResource struct {
	ctx     context.Context
	file    *os.File
	info    os.FileInfo
	limiter *IOLimiter
}

func newFileResource(ctx context.Context, file *os.File, info os.FileInfo, limiter *IOLimiter) *FileResource {
	return &FileResource{
		ctx:     ctx,
		file:    file,
		info:    info,
		limiter: limiter,
	}
}

// ReadAt waits for a free disk slot, bounded by the context the resource was opened with.
func (f *FileResource) ReadAt(p []byte, off int64) (int, error) {
	if f.limiter != nil {
		if err := f.limiter.Acquire(f.ctx); err != nil {
			return 0, err
		}
		defer f.limiter.Release()
	}

	return f.file.ReadAt(p, off)
}

func (f *FileResource) Close() error {
	return f.file.Close()
}

// satisfy the media Resource interface
func (f *FileResource) Name() string       { return f.info.Name() }
func (f *FileResource) ModTime() time.Time { return f.info.ModTime() }
func (f *FileResource) Size() int64        { return f.info.Size() }
