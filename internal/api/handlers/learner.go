package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/aptnet/internal/api/middleware"
	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/service"
)

type LearnerHandler struct {
	svc         *service.LearnerService
	assessments *service.AssessmentService
}

func NewLearnerHandler(svc *service.LearnerService, assessments *service.AssessmentService) *LearnerHandler {
	return &LearnerHandler{svc: svc, assessments: assessments}
}

type createLearnerRequest struct {
	ExternalID string         `json:"external_id"`
	Name       string         `json:"name"`
	Metadata   map[string]any `json:"metadata"`
}

func (h *LearnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createLearnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	learner := &domain.Learner{
		TenantID:   tenant.ID,
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Metadata:   req.Metadata,
	}

	if err := h.svc.Create(r.Context(), learner); err != nil {
		switch {
		case errors.Is(err, service.ErrLearnerExternalIDMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrLearnerConflict):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create learner")
		}
		return
	}

	writeJSON(w, http.StatusCreated, learner)
}

func (h *LearnerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := urlID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}

	learner, err := h.svc.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		if errors.Is(err, service.ErrLearnerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get learner")
		return
	}

	writeJSON(w, http.StatusOK, learner)
}

func (h *LearnerHandler) ListAssessments(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := urlID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}

	list, err := h.assessments.ListByLearner(r.Context(), id, tenant.ID, queryLimit(r, 50))
	if err != nil {
		if errors.Is(err, service.ErrLearnerNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list assessments")
		return
	}
	if list == nil {
		list = []domain.Assessment{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"assessments": list})
}
