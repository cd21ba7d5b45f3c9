package media

import "errors"

var (
	ErrNotFound        = errors.New("resource not found")
	ErrPathOutsideRoot = errors.New("path outside root directory")
)
