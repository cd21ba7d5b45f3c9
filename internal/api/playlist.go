package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// HandleM3U serves the library as an extended M3U playlist pointing at /videos/{name}.
func (h *Handler) HandleM3U(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimSuffix(h.requestURL(r), r.URL.EscapedPath()) + "/videos"

	started := false
	start := func() {
		started = true
		w.Header().Set("Content-Type", "audio/x-mpegurl")
		w.Header().Set("Cache-Control", "no-cache")
		// m3u Header
		fmt.Fprintln(w, "#EXTM3U")
	}

	for name, err := range h.Media.List(r.Context()) {
		if err != nil {
			h.failListing(w, r, started, err)
			return
		}

		if !started {
			start()
		}

		displayName := lineBreaks.Replace(strings.TrimSuffix(name, filepath.Ext(name)))
		// #EXTINF:-1,Die Hard
		fmt.Fprintf(w, "#EXTINF:-1,%s\n", displayName)
		// http://.../videos/Die%20Hard.mp4
		fmt.Fprintln(w, videoLink(base, name))
	}

	if !started {
		start()
	}
}
