package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"metalspot-service/internal/application"
	"metalspot-service/internal/infrastructure/logx"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	spotBase = "USD"
	spotUnit = "troy_oz"

	unavailableMessage = "spot prices are temporarily unavailable"
)

// SpotService is what the HTTP layer needs from the cache.
type SpotService interface {
	Get(ctx context.Context) (application.Result, error)
	State() application.CacheState
}

// CachePolicy drives the Cache-Control header of successful /spot responses.
// Values are seconds.
type CachePolicy struct {
	ClientMaxAge         int
	SharedMaxAge         int
	StaleWhileRevalidate int
}

func (p CachePolicy) Header() string {
	return fmt.Sprintf("public, max-age=%d, s-maxage=%d, stale-while-revalidate=%d",
		p.ClientMaxAge, p.SharedMaxAge, p.StaleWhileRevalidate)
}

type Server struct {
	svc     SpotService
	policy  CachePolicy
	ping    func(ctx context.Context) error
	started time.Time
}

func NewServer(svc SpotService, policy CachePolicy) *Server {
	return &Server{svc: svc, policy: policy, started: time.Now()}
}

// SetReadyCheck installs the dependency probe used by /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Cache  string `json:"cache"`
}

func (s *Server) GetSpot(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Get(r.Context())
	if err != nil {
		logx.WithFields(r.Context()).Error("spot.unavailable", zap.Error(err))
		w.Header().Set("Cache-Control", "no-store")
		writeError(w, http.StatusInternalServerError, "service_unavailable", unavailableMessage)
		return
	}

	body := make(map[string]any, len(res.Snapshot.Quotes)+5)
	body["base"] = spotBase
	body["unit"] = spotUnit
	for sym, q := range res.Snapshot.Quotes {
		body[string(sym)] = json.Number(q.Price.String())
	}
	body["updatedAt"] = res.Snapshot.FetchedAt.UTC().Format(time.RFC3339)
	body["source"] = res.Snapshot.Source
	body["cacheStatus"] = string(res.Status)

	w.Header().Set("Cache-Control", s.policy.Header())
	w.Header().Set("X-Cache-Status", string(res.Status))
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
		Cache:  string(s.svc.State()),
	})
}

func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			logx.WithFields(r.Context()).Warn("readyz.failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "not_ready", "snapshot store not ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
