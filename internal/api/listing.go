package api

import (
	"encoding/json"
	"io"
	"net/http"

	"rangestream/internal/middleware"
)

// VideoDetails is one element of the /videos listing.
type VideoDetails struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// HandleList streams the library as a JSON array, one entry per visible file.
// Entries are written as they are enumerated; nothing is collected up front.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	base := h.requestURL(r)
	enc := json.NewEncoder(w)

	started := false
	start := func() {
		started = true
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Location", base)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "[")
	}

	for name, err := range h.Media.List(r.Context()) {
		if err != nil {
			h.failListing(w, r, started, err)
			return
		}

		if started {
			io.WriteString(w, ",")
		} else {
			start()
		}

		if err := enc.Encode(VideoDetails{Name: name, Link: videoLink(base, name)}); err != nil {
			// write failures mean the client is gone
			h.logger.Debug("listing interrupted", "id", middleware.RequestID(r.Context()), "err", err)
			return
		}
	}

	if !started {
		start()
	}
	io.WriteString(w, "]")
}

// failListing reports an enumeration error: a 500 while nothing was sent,
// otherwise the response is aborted so the client never sees a truncated list as complete.
func (h *Handler) failListing(w http.ResponseWriter, r *http.Request, started bool, err error) {
	if !started {
		h.writeError(w, r, err)
		return
	}

	if r.Context().Err() != nil {
		return
	}

	h.logger.Error("listing aborted", "id", middleware.RequestID(r.Context()), "err", err)
	panic(http.ErrAbortHandler)
}
