package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/oraclemonitor/internal/domain"
	apimw "github.com/hamed0406/oraclemonitor/internal/httpapi/middleware"
	"github.com/hamed0406/oraclemonitor/internal/monitor"
	"github.com/hamed0406/oraclemonitor/internal/repo"
)

const (
	defaultAlertLimit = 20
	maxAlertLimit     = 100
)

type Server struct {
	Logger   *zap.Logger
	Status   repo.StatusReader
	Policy   monitor.Policy
	Interval time.Duration
}

func NewServer(l *zap.Logger, status repo.StatusReader, p monitor.Policy, interval time.Duration) *Server {
	return &Server{Logger: l, Status: status, Policy: p, Interval: interval}
}

// Router mounts /healthz and the key-protected, rate-limited /api routes.
func (s *Server) Router(keys []string, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(rpm, burst))
		r.Use(apimw.RequireKey(keys))
		r.Get("/status", s.handleStatus)
		r.Get("/alerts", s.handleAlerts)
	})

	return r
}

type policyView struct {
	MissTolerance          int64 `json:"miss_tolerance"`
	MissTolerancePeriodSec int64 `json:"miss_tolerance_period_sec"`
	AlertCooldownSec       int64 `json:"alert_cooldown_sec"`
	SampleIntervalSec      int64 `json:"sample_interval_sec"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Healthy        bool            `json:"healthy"`
	MissDifference int64           `json:"miss_difference"`
	Snapshot       domain.Snapshot `json:"snapshot"`
	Policy         policyView      `json:"policy"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Status.Snapshot(r.Context())
	if err != nil {
		s.Logger.Warn("status_read_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	resp := StatusResponse{
		Healthy:  snap.Healthy(),
		Snapshot: snap,
		Policy: policyView{
			MissTolerance:          s.Policy.Tolerance,
			MissTolerancePeriodSec: int64(s.Policy.TolerancePeriod / time.Second),
			AlertCooldownSec:       int64(s.Policy.Cooldown / time.Second),
			SampleIntervalSec:      int64(s.Interval / time.Second),
		},
	}
	if snap.Seeded {
		resp.MissDifference = snap.State.LastSampled - snap.State.Baseline
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAlertLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	alerts, err := s.Status.Alerts(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("alerts_read_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "alerts unavailable")
		return
	}
	if alerts == nil {
		alerts = []domain.AlertEvent{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
