package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

const listBatchSize = 64

// Library serves the media files found directly inside RootPath.
// It keeps no per-request state and is safe for concurrent use.
type Library struct {
	RootPath string
	limiter  *IOLimiter
}

func NewLibrary(rootPath string, limiter *IOLimiter) *Library {
	return &Library{
		RootPath: rootPath,
		limiter:  limiter,
	}
}

// Open resolves name to a resource. The returned resource reads through the
// library's IOLimiter using ctx, and must be closed by the caller.
func (l *Library) Open(ctx context.Context, name string) (Resource, error) {
	file, err := l.openFile(name)
	if err != nil {
		return nil, fmt.Errorf("open resource: %w", err)
	}

	// stat the handle, not the path: length and content come from the same inode
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if !info.Mode().IsRegular() {
		file.Close()
		return nil, fmt.Errorf("open resource: %w: %q is not a regular file", ErrNotFound, name)
	}

	return newFileResource(ctx, file, info, l.limiter), nil
}

// List lazily enumerates the visible files of the library in directory order.
// An enumeration failure is yielded as the last element with an empty name.
func (l *Library) List(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dir, err := os.Open(l.RootPath)
		if err != nil {
			yield("", fmt.Errorf("open library: %w", err))
			return
		}
		defer dir.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			entries, err := dir.ReadDir(listBatchSize)
			for _, entry := range entries {
				// Open serves regular files only, so symlinks, directories
				// and devices would be links that never resolve
				if !entry.Type().IsRegular() || isHidden(entry.Name()) {
					continue
				}
				if !yield(entry.Name(), nil) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("read library: %w", err))
				return
			}
		}
	}
}
