package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/camuig/robot-analytics/internal/config"
	"github.com/camuig/robot-analytics/internal/ingest"
	"github.com/camuig/robot-analytics/internal/logger"
	"github.com/camuig/robot-analytics/internal/observability"
	"github.com/camuig/robot-analytics/internal/periods"
	"github.com/camuig/robot-analytics/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// UploadHistory is the read side of the upload log.
type UploadHistory interface {
	GetRecentUploads(limit int) ([]storage.UploadLog, error)
	GetLastSuccessfulUpload(bucket string) (*storage.UploadLog, error)
	CountFailedUploads() (int64, error)
}

type Server struct {
	httpServer *http.Server
	store      *periods.Store
	ingest     *ingest.Service
	history    UploadHistory
	metrics    *observability.Metrics
	config     *config.Config
	logger     *logger.Logger
	templates  *template.Template
}

// NewServer builds the HTTP server. history may be nil.
func NewServer(
	store *periods.Store,
	ingestSvc *ingest.Service,
	history UploadHistory,
	metrics *observability.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		store:     store,
		ingest:    ingestSvc,
		history:   history,
		metrics:   metrics,
		config:    cfg,
		logger:    log,
		templates: tmpl,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// Handler returns the routed mux; exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/records.csv", s.handleRecordsCSV)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/groups", s.handleGroups)
	mux.HandleFunc("GET /api/uploads", s.handleUploads)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
