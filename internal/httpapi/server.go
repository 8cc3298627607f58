package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/audit"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
)

const (
	maxBodyBytes    = 1 << 20
	maxValidateURLs = 100
	requestTimeout  = 90 * time.Second
)

// SectionAssembler assembles one section's references.
type SectionAssembler interface {
	AssembleReport(ctx context.Context, section references.Section) (*references.Report, error)
}

// Server exposes the reference pipeline over HTTP.
type Server struct {
	assembler SectionAssembler
	validator references.URLValidator
	registry  *sources.Registry
	recorder  *audit.Recorder
	logger    *zap.Logger
}

// NewServer wires the API handlers. A nil recorder records to memory.
func NewServer(assembler SectionAssembler, v references.URLValidator, registry *sources.Registry, recorder *audit.Recorder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = audit.NewRecorder(nil, logger)
	}
	return &Server{
		assembler: assembler,
		validator: v,
		registry:  registry,
		recorder:  recorder,
		logger:    logger,
	}
}

// Router returns the API routes with request ID, recovery and metrics
// middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument(s.logger))
	r.Use(middleware.Timeout(requestTimeout))
	s.Register(r)
	return r
}

// Register mounts the API endpoints on r.
func (s *Server) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/references/assemble", s.handleAssemble)
		r.Post("/references/validate", s.handleValidate)
		r.Get("/sources/lookup", s.handleLookup)
		r.Get("/audit/recent", s.handleRecentAudit)
	})
}
