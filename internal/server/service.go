// Package server exposes the batch jobs, the location-history lookup, progress
// subscriptions, and metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/fleet-telemetry/internal/export"
	"github.com/joseph-ayodele/fleet-telemetry/internal/pipeline"
	"github.com/joseph-ayodele/fleet-telemetry/internal/reconcile"
	"github.com/joseph-ayodele/fleet-telemetry/internal/repository"
	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

// JobService runs one folder job to completion.
type JobService interface {
	Process(ctx context.Context, req services.ProcessRequest) (services.Response, pipeline.Summary)
}

// AuditService annotates an uploaded master workbook.
type AuditService interface {
	ProcessWorkbook(ctx context.Context, r io.Reader) ([]byte, reconcile.Summary, error)
}

type Deps struct {
	Store    repository.LocationStore
	Importer JobService
	PDF      JobService
	Audit    AuditService
	Export   *export.Service
	Progress http.Handler // websocket endpoint; nil disables it
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type Server struct {
	deps   Deps
	jobMu  sync.Mutex
	logger *slog.Logger
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Server{deps: d, logger: d.Logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(cors)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if s.deps.Progress != nil {
		r.Handle("/progress", s.deps.Progress)
		r.Handle("/ws/progress", s.deps.Progress)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/process", s.handleProcess("PDFs", s.deps.PDF, services.PDFAliases)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/importexcel/process", s.handleProcess("spreadsheets", s.deps.Importer, services.ImportAliases)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/excel/processMasterExcel", s.handleMasterExcel).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/location-history", s.handleLocationHistory).Methods(http.MethodGet)
	api.HandleFunc("/getLocationHistory/get", s.handleLocationHistory).Methods(http.MethodGet)
	api.HandleFunc("/location-history/export", s.handleExport).Methods(http.MethodGet)
	return r
}

// HTTPServer wraps the router with the listener settings.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// RunImport runs the spreadsheet import job. Jobs never overlap: a caller
// waits for the running job to finish.
func (s *Server) RunImport(ctx context.Context, req services.ProcessRequest) services.Response {
	return s.runJob(ctx, s.deps.Importer, req)
}

func (s *Server) runJob(ctx context.Context, job JobService, req services.ProcessRequest) services.Response {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	resp, _ := job.Process(ctx, req)
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		if err := repository.HealthCheck(r.Context(), s.deps.Store, time.Second, s.logger); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
