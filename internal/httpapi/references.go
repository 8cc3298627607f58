package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/audit"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/citations"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/references"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/validator"
)

type assembleRequest struct {
	SectionID string                  `json:"section_id"`
	Sector    string                  `json:"sector"`
	Content   string                  `json:"content"`
	Citations []citations.RawCitation `json:"citations"`
	Policy    string                  `json:"policy"`
}

type assembleResponse struct {
	SectionID  string                 `json:"section_id,omitempty"`
	Outcome    references.Outcome     `json:"outcome"`
	References []references.Reference `json:"references"`
	Rejections []references.Rejection `json:"rejections,omitempty"`
}

type noWorkingReferencesResponse struct {
	Error      string                 `json:"error"`
	SectionID  string                 `json:"section_id,omitempty"`
	Candidates int                    `json:"candidates"`
	Rejections []references.Rejection `json:"rejections"`
}

// handleAssemble handles POST /v1/references/assemble.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req assembleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var policy references.Policy
	if req.Policy != "" {
		p, err := references.ParsePolicy(req.Policy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		policy = p
	}

	report, err := s.assembler.AssembleReport(ctx, references.Section{
		ID:        req.SectionID,
		Sector:    req.Sector,
		Content:   req.Content,
		Citations: req.Citations,
		Policy:    policy,
	})
	if report != nil {
		s.recorder.Record(ctx, audit.FromReport(report))
	}

	var noRefs *references.NoWorkingReferencesError
	switch {
	case errors.As(err, &noRefs):
		rejections := noRefs.Rejections
		if rejections == nil {
			rejections = []references.Rejection{}
		}
		writeJSON(w, http.StatusUnprocessableEntity, noWorkingReferencesResponse{
			Error:      "no_working_references",
			SectionID:  noRefs.SectionID,
			Candidates: noRefs.Candidates,
			Rejections: rejections,
		})
		return
	case err != nil:
		s.logger.Error("Reference assembly failed",
			zap.String("request_id", RequestID(ctx)),
			zap.String("section_id", req.SectionID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	refs := report.References
	if refs == nil {
		refs = []references.Reference{}
	}
	writeJSON(w, http.StatusOK, assembleResponse{
		SectionID:  report.SectionID,
		Outcome:    report.Outcome,
		References: refs,
		Rejections: report.Rejections,
	})
}

type validateRequest struct {
	URLs []string `json:"urls"`
}

type validateResponse struct {
	Results []validator.Result `json:"results"`
}

// handleValidate handles POST /v1/references/validate.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.URLs) > maxValidateURLs {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("at most %d urls per request", maxValidateURLs))
		return
	}
	results := s.validator.ValidateMany(r.Context(), req.URLs)
	if results == nil {
		results = []validator.Result{}
	}
	writeJSON(w, http.StatusOK, validateResponse{Results: results})
}

// handleLookup handles GET /v1/sources/lookup?url=.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "url query parameter required")
		return
	}
	writeJSON(w, http.StatusOK, s.registry.Lookup(u))
}

// handleRecentAudit handles GET /v1/audit/recent?limit=.
func (s *Server) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = min(n, 1000)
	}

	events, ok, err := s.recorder.Recent(r.Context(), limit)
	switch {
	case !ok:
		writeError(w, http.StatusNotFound, "not_found", "audit sink does not support reads")
		return
	case err != nil:
		s.logger.Warn("Failed to read audit events", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
