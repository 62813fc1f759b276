package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/aptnet/internal/api/middleware"
	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/service"
	"github.com/google/uuid"
)

type AssessmentHandler struct {
	svc          *service.AssessmentService
	similarLimit int
}

func NewAssessmentHandler(svc *service.AssessmentService, similarLimit int) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, similarLimit: similarLimit}
}

type assessRequest struct {
	LearnerID string `json:"learner_id,omitempty"`
	Time      *int   `json:"time"`
	Outcomes  []bool `json:"outcomes"`
}

// Assess evaluates one case. ?format=human or ?format=machine returns the
// text rendering instead of JSON.
func (h *AssessmentHandler) Assess(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	networkID, ok := urlID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid network id")
		return
	}

	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Time == nil {
		writeError(w, http.StatusBadRequest, service.ErrMissingTime.Error())
		return
	}

	var learnerID *uuid.UUID
	if req.LearnerID != "" {
		id, err := uuid.Parse(req.LearnerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid learner_id")
			return
		}
		learnerID = &id
	}

	format := r.URL.Query().Get("format")
	var mode service.FormatMode
	if format != "" {
		m, err := service.ParseFormatMode(format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}

	a, err := h.svc.Assess(r.Context(), tenant.ID, networkID, learnerID, service.Case{Time: *req.Time, Outcomes: req.Outcomes})
	if err != nil {
		writeAssessmentError(w, err)
		return
	}

	if format != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = service.FormatAssessment(w, resultOf(a), mode)
		return
	}

	status := http.StatusOK
	if learnerID != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, a)
}

func (h *AssessmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := urlID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}

	a, err := h.svc.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		writeAssessmentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

func (h *AssessmentHandler) Similar(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := urlID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}

	similar, err := h.svc.Similar(r.Context(), id, tenant.ID, queryLimit(r, h.similarLimit))
	if err != nil {
		writeAssessmentError(w, err)
		return
	}
	if similar == nil {
		similar = []domain.AssessmentWithDistance{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"similar": similar})
}

func resultOf(a *domain.Assessment) *service.Result {
	return &service.Result{
		Time:                a.Time,
		Chapters:            a.Chapters,
		Aptitude:            service.Aptitude{Percentage: a.Percentage, Verdict: a.Verdict},
		EvidenceProbability: a.EvidenceProbability,
	}
}

func writeAssessmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAssessmentNotFound),
		errors.Is(err, service.ErrNetworkNotFound),
		errors.Is(err, service.ErrLearnerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUsage),
		errors.Is(err, bayesnet.ErrEvidence):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bayesnet.ErrInference),
		errors.Is(err, bayesnet.ErrModelDefinition):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to assess")
	}
}
