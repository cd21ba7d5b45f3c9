package api

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

func getMimeType(filename string) string {
	ext := filepath.Ext(filename)
	lowerExt := strings.ToLower(ext)

	switch lowerExt {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".wmv":
		return "video/x-ms-wmv"
	case ".flv":
		return "video/x-flv"
	case ".webm":
		return "video/webm"
	case ".mpg", ".mpeg":
		return "video/mpeg"
	case ".ts":
		return "video/mp2t"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// requestURL rebuilds the absolute URL the client used, without query and trailing slash.
func (h *Handler) requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	if h.config.TrustedProxy {
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			first, _, _ := strings.Cut(proto, ",")
			scheme = strings.ToLower(strings.TrimSpace(first))
		}
	}

	return scheme + "://" + r.Host + strings.TrimSuffix(r.URL.EscapedPath(), "/")
}

// videoLink is the URL of one entry below base.
func videoLink(base, name string) string {
	return base + "/" + url.PathEscape(name)
}
