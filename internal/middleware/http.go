package middleware

import (
	"net/http"
	"slices"
	"time"
)

type Middleware func(http.Handler) http.Handler

func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for _, m := range slices.Backward(mws) {
		h = m(h)
	}
	return h
}

// responseRecorder captures what a handler sent: status, body bytes, and
// whether it gave up halfway through.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
	aborted bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer (Flush, deadlines).
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Status is the code sent to the client; a handler that never wrote anything gets 200.
func (r *responseRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func recordWriter(w http.ResponseWriter) *responseRecorder {
	if recorder, ok := w.(*responseRecorder); ok {
		return recorder
	}
	return &responseRecorder{ResponseWriter: w}
}

// serveRecorded runs next and hands the outcome to done, also when next
// panics (http.ErrAbortHandler for a stream cut short). The panic is
// re-raised once done returns, so net/http still drops the connection.
func serveRecorded(w http.ResponseWriter, r *http.Request, next http.Handler, done func(rec *responseRecorder, elapsed time.Duration)) {
	recorder := recordWriter(w)
	start := time.Now()

	defer func() {
		p := recover()
		if p != nil {
			recorder.aborted = true
		}

		done(recorder, time.Since(start))

		if p != nil {
			panic(p)
		}
	}()

	next.ServeHTTP(recorder, r)
}
