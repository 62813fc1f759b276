package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/aptnet/internal/api/middleware"
	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"github.com/Harshitk-cp/aptnet/internal/domain"
	"github.com/Harshitk-cp/aptnet/internal/netfile"
	"github.com/Harshitk-cp/aptnet/internal/service"
)

type NetworkHandler struct {
	svc *service.NetworkService
}

func NewNetworkHandler(svc *service.NetworkService) *NetworkHandler {
	return &NetworkHandler{svc: svc}
}

type createNetworkRequest struct {
	Name       string              `json:"name"`
	Definition *netfile.Definition `json:"definition"`
}

type cliqueSummary struct {
	Variables []string `json:"variables"`
	Size      int      `json:"size"`
}

type networkResponse struct {
	*domain.Network
	CliqueTree []cliqueSummary `json:"clique_tree,omitempty"`
}

func (h *NetworkHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n := &domain.Network{
		TenantID:   tenant.ID,
		Name:       req.Name,
		Definition: req.Definition,
	}
	if err := h.svc.Create(r.Context(), n); err != nil {
		writeNetworkError(w, err, "failed to create network")
		return
	}

	writeJSON(w, http.StatusCreated, n)
}

func (h *NetworkHandler) InstallDefault(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	n, err := h.svc.InstallDefault(r.Context(), tenant.ID)
	if err != nil {
		writeNetworkError(w, err, "failed to install default network")
		return
	}

	writeJSON(w, http.StatusOK, n)
}

func (h *NetworkHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := urlID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid network id")
		return
	}

	n, err := h.svc.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		writeNetworkError(w, err, "failed to get network")
		return
	}
	resp := networkResponse{Network: n}

	cm, err := h.svc.Course(r.Context(), id, tenant.ID)
	if err != nil {
		writeNetworkError(w, err, "failed to compile network")
		return
	}
	for _, c := range cm.Compiled.Cliques() {
		s := cliqueSummary{Size: c.Size}
		for _, v := range c.Vars {
			s.Variables = append(s.Variables, cm.Compiled.Name(v))
		}
		resp.CliqueTree = append(resp.CliqueTree, s)
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeNetworkError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNetworkNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNetworkConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNetworkNameMissing),
		errors.Is(err, netfile.ErrInvalidDefinition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bayesnet.ErrModelDefinition):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
