package accounts

import (
	"net/http"

	"family-registry-go/internal/domain/permission"
	roledomain "family-registry-go/internal/domain/role"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type createRoleRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Permissions map[string]any `json:"permissions"`
}

type updateRoleRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Permissions map[string]any `json:"permissions"`
}

func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	includeInactive, err := commonhandler.ParseBoolParam(r.URL.Query().Get("include_inactive"), false)
	if err != nil {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "include_inactive must be a boolean")
		return
	}

	err = h.Guard.Authorize(r.Context(), viewer.ID, permission.RolesView)
	var roles []roledomain.Role
	if err == nil {
		roles, err = h.Roles.ListRoles(r.Context(), includeInactive)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "roles.list", err, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": roles, "total": len(roles)})
}

func (h *Handlers) GetRole(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	err := h.Guard.Authorize(r.Context(), viewer.ID, permission.RolesView)
	var role *roledomain.Role
	if err == nil {
		role, err = h.Roles.GetRole(r.Context(), id)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "roles.get", err, "role_id", id, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

func (h *Handlers) CreateRole(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req createRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	err := h.Guard.Authorize(r.Context(), viewer.ID, permission.RolesManage)
	var created *roledomain.Role
	if err == nil {
		created, err = h.Roles.CreateRole(r.Context(), roledomain.CreateRoleInput{
			ActorID:     viewer.ID,
			Name:        req.Name,
			Description: req.Description,
			Grants:      req.Permissions,
		})
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "roles.create", err, "actor_id", viewer.ID, "name", req.Name)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}
	id := chi.URLParam(r, "id")

	err := h.Guard.Authorize(r.Context(), viewer.ID, permission.RolesManage)
	var updated *roledomain.Role
	if err == nil {
		updated, err = h.Roles.UpdateRole(r.Context(), viewer.ID, roledomain.UpdateRoleInput{
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Grants:      req.Permissions,
		})
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "roles.update", err, "role_id", id, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteRole(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	err := h.Guard.Authorize(r.Context(), viewer.ID, permission.RolesManage)
	if err == nil {
		err = h.Roles.DeleteRole(r.Context(), viewer.ID, id)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "roles.delete", err, "role_id", id, "actor_id", viewer.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
