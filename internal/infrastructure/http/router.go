package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"metalspot-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	headerTraceID   = "X-Trace-Id"
)

func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(correlate)
	r.Use(instrument)
	r.Use(recoverer)

	r.Get("/spot", s.GetSpot)
	r.Get("/healthz", s.Health)
	r.Get("/readyz", s.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// correlate echoes or mints the request and trace IDs and puts them on the context for logx.
func correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := headerOrNew(r, headerRequestID)
		tid := headerOrNew(r, headerTraceID)
		w.Header().Set(headerRequestID, rid)
		w.Header().Set(headerTraceID, tid)

		ctx := logx.WithTraceID(logx.WithRequestID(r.Context(), rid), tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func headerOrNew(r *http.Request, name string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return uuid.NewString()
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logx.WithFields(r.Context()).Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	rr.status = code
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

func (rr *responseRecorder) Status() int {
	if rr.status == 0 {
		return http.StatusOK
	}
	return rr.status
}

// instrument writes the access log line and the HTTP metrics for every request.
// The route label is the chi pattern so /metrics cardinality stays fixed.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		start := time.Now()
		rr := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rr, r)
		took := time.Since(start)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rr.Status())).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(took.Seconds())

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", rr.Status()),
			zap.Int("bytes", rr.bytes),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Duration("duration", took),
		}
		if cs := rr.Header().Get("X-Cache-Status"); cs != "" {
			fields = append(fields, zap.String("cache_status", cs))
		}
		logx.WithFields(r.Context()).Info("http_request", fields...)
	})
}
