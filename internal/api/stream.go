package api

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"rangestream/internal/media"
	"rangestream/internal/middleware"
	"rangestream/internal/observability"
	"rangestream/pkg/httprange"
	"rangestream/pkg/smartio"
)

// HandleVideo serves GET/HEAD /videos/{name}: the whole file, or a single
// capped region when a Range header is present.
func (h *Handler) HandleVideo(w http.ResponseWriter, r *http.Request) {
	res, ok := h.openVideo(w, r)
	if !ok {
		return
	}
	// close the file when request is done, aborted streams included
	defer res.Close()

	size := res.Size()

	rng, err := httprange.Parse(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, httprange.ErrMalformed):
		observability.RangeOutcomes.WithLabelValues(observability.OutcomeMalformed).Inc()
		h.writeError(w, r, err)
		return

	case errors.Is(err, httprange.ErrUnsatisfiable):
		if size > 0 {
			observability.RangeOutcomes.WithLabelValues(observability.OutcomeUnsatisfiable).Inc()
			w.Header().Set("Content-Range", httprange.UnsatisfiedContentRange(size))
			h.writeError(w, r, err)
			return
		}
		// an empty file is always answered with an empty 200
		rng = nil
	}

	region := httprange.Resolve(size, rng, h.config.MaxRegionSize)

	outcome := observability.OutcomeFull
	if region.Partial() {
		outcome = observability.OutcomePartial
	}
	observability.RangeOutcomes.WithLabelValues(outcome).Inc()

	h.logger.Debug("stream request",
		"id", middleware.RequestID(r.Context()),
		"name", res.Name(),
		"range", r.Header.Get("Range"),
		"offset", region.Offset,
		"count", region.Count,
		"size", size,
		"user_agent", r.Header.Get("User-Agent"),
	)

	h.writeRegion(w, r, res, region)
}

// writeRegion emits status, headers and exactly region.Count bytes of res.
//
// The first sub-chunk is read before the status line, so a storage failure at
// that point still becomes a 500. A failure after that aborts the connection:
// the client sees a short body rather than a corrupt one.
func (h *Handler) writeRegion(w http.ResponseWriter, r *http.Request, res media.Resource, region httprange.Region) {
	ctx := r.Context()

	header := w.Header()
	header.Set("Content-Type", getMimeType(res.Name()))
	header.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": res.Name()}))
	header.Set("Cache-Control", "no-cache")
	header.Set("Last-Modified", res.ModTime().UTC().Format(http.TimeFormat))

	if r.Method == http.MethodHead {
		region.SetHeaders(header)
		w.WriteHeader(region.Status())
		return
	}

	reader, err := smartio.NewRangedReader(ctx, res, region.Offset, region.Count, h.config.ReadChunkSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	observability.ActiveStreams.Inc()
	defer observability.ActiveStreams.Dec()

	buf := make([]byte, max(1, min(int64(h.config.ReadChunkSize), region.Count)))

	n, err := reader.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		header.Del("Content-Disposition")
		header.Del("Last-Modified")
		h.writeError(w, r, err)
		return
	}

	region.SetHeaders(header)
	w.WriteHeader(region.Status())

	for {
		if n > 0 {
			written, werr := w.Write(buf[:n])
			observability.BytesServed.Add(float64(written))
			if werr != nil {
				// the client went away; nothing left to tell it
				h.logger.Debug("client disconnected", "id", middleware.RequestID(ctx), "name", res.Name(), "err", werr)
				return
			}
		}

		switch {
		case errors.Is(err, io.EOF):
			return
		case err != nil && ctx.Err() != nil:
			h.logger.Debug("stream cancelled", "id", middleware.RequestID(ctx), "name", res.Name(), "remaining", reader.Remaining())
			return
		case err != nil:
			observability.AbortedStreams.Inc()
			h.logger.Error("stream aborted",
				"id", middleware.RequestID(ctx),
				"name", res.Name(),
				"remaining", reader.Remaining(),
				"err", err,
			)
			panic(http.ErrAbortHandler)
		}

		n, err = reader.Read(buf)
	}
}
