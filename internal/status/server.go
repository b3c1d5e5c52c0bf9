package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flashpeg-keeper/internal/strategy"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Report is the process-wide view assembled from strategy snapshots.
type Report struct {
	Wallet     string
	Error      string
	Strategies []strategy.Snapshot
}

// Ready is true when no global error is set and every configured strategy
// started.
func (r Report) Ready() bool {
	if r.Error != "" || len(r.Strategies) == 0 {
		return false
	}
	for _, s := range r.Strategies {
		if !s.Ready {
			return false
		}
	}
	return true
}

type Reporter interface {
	Report() Report
}

type healthResponse struct {
	Status        string              `json:"status"`
	Error         string              `json:"error,omitempty"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	WalletAddress string              `json:"wallet_address,omitempty"`
	Strategies    []strategy.Snapshot `json:"strategies"`
}

// NewRouter serves /health and, when metrics is non-nil, the metrics path.
func NewRouter(reporter Reporter, metrics http.Handler, metricsPath string, started time.Time) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		report := reporter.Report()
		resp := healthResponse{
			Status:        "ok",
			Error:         report.Error,
			UptimeSeconds: int64(time.Since(started).Seconds()),
			WalletAddress: report.Wallet,
			Strategies:    report.Strategies,
		}
		if resp.Strategies == nil {
			resp.Strategies = []strategy.Snapshot{}
		}
		code := http.StatusOK
		if !report.Ready() {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}).Methods(http.MethodGet)
	if metrics != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.Handle(metricsPath, metrics).Methods(http.MethodGet)
	}
	return router
}

type Server struct {
	srv *http.Server
	log *zap.Logger
}

func NewServer(addr string, handler http.Handler, log *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && s.log != nil {
			s.log.Error("status server failed", zap.Error(err))
		}
	}()
	if s.log != nil {
		s.log.Info("status server listening", zap.String("address", s.srv.Addr))
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
