package httprange

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMalformed     = errors.New("malformed range")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

const unit = "bytes"

// Range is a normalized, inclusive byte window: 0 <= Start <= End < size.
type Range struct {
	Start int64
	End   int64
}

// Parse reads a single-range Range header value against a resource of the given size.
// An empty header yields (nil, nil), meaning the whole resource was requested.
func Parse(rangeHeader string, size int64) (*Range, error) {
	rangeHeader = strings.TrimSpace(rangeHeader)
	if rangeHeader == "" {
		return nil, nil
	}

	name, rangeSet, ok := strings.Cut(rangeHeader, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(name), unit) {
		return nil, fmt.Errorf("%w: unsupported range unit", ErrMalformed)
	}

	rangeSet = strings.TrimSpace(rangeSet)
	if strings.Contains(rangeSet, ",") {
		return nil, fmt.Errorf("%w: multiple ranges are not supported", ErrMalformed)
	}

	first, last, ok := strings.Cut(rangeSet, "-")
	if !ok {
		return nil, fmt.Errorf("%w: invalid range specification", ErrMalformed)
	}

	switch {
	case first == "" && last == "":
		return nil, fmt.Errorf("%w: empty range specification", ErrMalformed)

	case first == "":
		// Suffix range: bytes=-500 (last 500 bytes)
		suffix, err := parsePosition(last)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid suffix length", ErrMalformed)
		}

		if suffix == 0 || size <= 0 {
			return nil, fmt.Errorf("%w: empty suffix range", ErrUnsatisfiable)
		}

		suffix = min(suffix, size)

		return &Range{Start: size - suffix, End: size - 1}, nil

	case last == "":
		// Open-ended range: bytes=500- (from 500 to end)
		start, err := parsePosition(first)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start position", ErrMalformed)
		}

		if start >= size {
			return nil, fmt.Errorf("%w: start position beyond content length", ErrUnsatisfiable)
		}

		return &Range{Start: start, End: size - 1}, nil

	default:
		// Bounded range: bytes=0-499
		start, err := parsePosition(first)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid start position", ErrMalformed)
		}

		end, err := parsePosition(last)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end position", ErrMalformed)
		}

		if end < start {
			return nil, fmt.Errorf("%w: end position before start position", ErrMalformed)
		}

		if start >= size {
			return nil, fmt.Errorf("%w: start position beyond content length", ErrUnsatisfiable)
		}

		return &Range{Start: start, End: min(end, size-1)}, nil
	}
}

// parsePosition accepts plain ASCII digits only; strconv alone would let signs through.
// Values beyond int64 saturate to math.MaxInt64 and are clamped to the resource later.
func parsePosition(s string) (int64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}

	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt64, nil
	}
	return n, err
}
