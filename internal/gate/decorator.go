package gate

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Decorate attaches diagnostic headers to every response: the request
// id and total pipeline latency. It runs outermost so rejected traffic
// is decorated too, and it never alters a decision made downstream.
func Decorate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chimw.GetReqID(r.Context())
		if reqID == "" {
			reqID = uuid.NewString()
		}
		dw := &decoratedWriter{ResponseWriter: w, start: time.Now(), requestID: reqID}
		next.ServeHTTP(dw, r)
	})
}

type decoratedWriter struct {
	http.ResponseWriter
	start       time.Time
	requestID   string
	wroteHeader bool
}

func (w *decoratedWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Set("X-Request-ID", w.requestID)
		w.Header().Set("X-Response-Time", strconv.FormatInt(time.Since(w.start).Milliseconds(), 10)+"ms")
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *decoratedWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}
