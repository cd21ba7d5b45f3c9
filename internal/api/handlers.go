package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"

	"rangestream/internal/media"
	"rangestream/internal/middleware"
	"rangestream/pkg/httprange"
)

// Config holds settings specific to the HTTP layer
type Config struct {
	MaxRegionSize int64 // largest body of a 206 response
	ReadChunkSize int   // bytes pulled from storage per write
	TrustedProxy  bool  // honour X-Forwarded-Proto when building links
}

// Library is what the handlers need from the media store.
type Library interface {
	Open(ctx context.Context, name string) (media.Resource, error)
	List(ctx context.Context) iter.Seq2[string, error]
}

type Handler struct {
	Media  Library
	logger *slog.Logger
	config Config
}

func NewHandler(m Library, cfg Config, logger *slog.Logger) (*Handler, error) {
	if m == nil {
		return nil, errors.New("media library is required")
	}

	if cfg.MaxRegionSize <= 0 || cfg.ReadChunkSize <= 0 {
		return nil, fmt.Errorf("region and read chunk sizes must be positive (got %d, %d)", cfg.MaxRegionSize, cfg.ReadChunkSize)
	}

	return &Handler{
		Media:  m,
		logger: logger,
		config: cfg,
	}, nil
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintln(w, "ok")
}

// statusFor maps an error raised before any body byte was written to a status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, media.ErrNotFound), errors.Is(err, media.ErrPathOutsideRoot):
		return http.StatusNotFound
	case errors.Is(err, httprange.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, httprange.ErrUnsatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// nginx's "client closed request"; the client never sees it
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	switch {
	case status >= http.StatusInternalServerError:
		h.logger.Error("request failed", "id", middleware.RequestID(r.Context()), "path", r.URL.Path, "err", err)
	case errors.Is(err, media.ErrPathOutsideRoot):
		h.logger.Warn("security alert: attempted path traversal", "path", r.URL.Path, "remote", r.RemoteAddr, "err", err)
	default:
		h.logger.Debug("request rejected", "id", middleware.RequestID(r.Context()), "path", r.URL.Path, "status", status, "err", err)
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.Error(w, http.StatusText(status), status)
}

// Routes registers the public endpoints on mux, each wrapped in mws.
// GET patterns also answer HEAD.
func (h *Handler) Routes(mux *http.ServeMux, mws ...middleware.Middleware) {
	handle := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, middleware.Chain(handler, mws...))
	}

	handle("GET /videos", h.HandleList)
	handle("GET /videos/{name}", h.HandleVideo)
	handle("GET /playlist.m3u", h.HandleM3U)
	handle("GET /healthz", h.HandleHealth)
}
