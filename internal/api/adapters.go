package api

import (
	"net/http"

	"rangestream/internal/media"
)

// openVideo resolves the {name} path value of r. On failure the error response
// has already been written and ok is false.
func (h *Handler) openVideo(w http.ResponseWriter, r *http.Request) (res media.Resource, ok bool) {
	name := r.PathValue("name")

	res, err := h.Media.Open(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	return res, true
}
