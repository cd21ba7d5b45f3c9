package httprange

import (
	"net/http"
	"strconv"
)

// DefaultMaxCount is the default upper bound of a single partial response.
const DefaultMaxCount int64 = 1 << 20

// Region is the window of a resource that a response will carry.
// Offset+Count never exceeds Total.
type Region struct {
	Offset int64
	Count  int64
	Total  int64
}

// Resolve turns an optional parsed range into the region to serve.
// Without a range the whole resource is served. With one, the count is capped
// at maxCount (when positive) so open-ended requests on large files are answered
// piecewise; the offset is never moved.
func Resolve(size int64, r *Range, maxCount int64) Region {
	if size <= 0 {
		return Region{}
	}

	if r == nil {
		return Region{Offset: 0, Count: size, Total: size}
	}

	offset := max(r.Start, 0)
	count := r.End - r.Start + 1

	if maxCount > 0 && count > maxCount {
		count = maxCount
	}

	if offset+count > size {
		count = size - offset
	}

	return Region{Offset: offset, Count: max(count, 0), Total: size}
}

// Partial reports whether the region is a strict part of the resource,
// i.e. whether it must be answered with 206 Partial Content.
func (r Region) Partial() bool {
	return r.Count != r.Total
}

// Status is the HTTP status code used to answer with this region.
func (r Region) Status() int {
	if r.Partial() {
		return http.StatusPartialContent
	}

	return http.StatusOK
}

// ContentRange renders the Content-Range value, e.g. "bytes 0-499/1000".
func (r Region) ContentRange() string {
	return unit + " " + strconv.FormatInt(r.Offset, 10) + "-" +
		strconv.FormatInt(r.Offset+r.Count-1, 10) + "/" + strconv.FormatInt(r.Total, 10)
}

// SetHeaders writes the framing headers for the region.
func (r Region) SetHeaders(h http.Header) {
	h.Set("Accept-Ranges", unit)
	h.Set("Content-Length", strconv.FormatInt(r.Count, 10))

	if r.Partial() {
		h.Set("Content-Range", r.ContentRange())
	} else {
		h.Del("Content-Range")
	}
}

// UnsatisfiedContentRange is the Content-Range value for a 416 response.
func UnsatisfiedContentRange(size int64) string {
	return unit + " */" + strconv.FormatInt(size, 10)
}
