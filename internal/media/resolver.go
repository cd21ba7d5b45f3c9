package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// HiddenPrefix marks entries that are neither listed nor served.
const HiddenPrefix = "."

func isHidden(name string) bool {
	return strings.HasPrefix(name, HiddenPrefix)
}

// validName accepts a single, visible path element.
func validName(name string) bool {
	if name == "" || isHidden(name) {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

func (l *Library) openFile(name string) (*os.File, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	f, err := os.OpenInRoot(l.RootPath, name)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w (%w)", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return nil, err
	default:
		// symlinks leaving the root fail with an unexported "path escapes" error
		return nil, fmt.Errorf("%w (%w)", ErrPathOutsideRoot, err)
	}
}
