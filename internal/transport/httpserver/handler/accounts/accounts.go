package accounts

import (
	"net/http"
	"strings"

	"family-registry-go/internal/apperr"
	accountdomain "family-registry-go/internal/domain/account"
	"family-registry-go/internal/domain/permission"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

const (
	deleteModeSoft = "soft"
	deleteModeHard = "hard"
)

var errAccountHidden = apperr.New(apperr.KindForbidden, "account_hidden", "not allowed to view this account")

type statusRequest struct {
	Status accountdomain.Status `json:"status"`
}

type roleRequest struct {
	RoleID string `json:"role_id"`
}

// canView allows the account itself, accounts of the same family and holders
// of users.view.
func (h *Handlers) canView(r *http.Request, viewer accountdomain.Account, target *accountdomain.Account) error {
	if viewer.ID == target.ID || viewer.FamilyID == target.FamilyID {
		return nil
	}
	allowed, err := h.Guard.Can(r.Context(), viewer.ID, permission.UsersView)
	if err != nil {
		return err
	}
	if !allowed {
		return errAccountHidden
	}
	return nil
}

func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	target, err := h.Accounts.Get(r.Context(), id)
	if err == nil {
		err = h.canView(r, viewer, target)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.get", err, "account_id", id, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, target)
}

func (h *Handlers) ListTransfers(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	target, err := h.Accounts.Get(r.Context(), id)
	if err == nil {
		err = h.canView(r, viewer, target)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.transfers", err, "account_id", id, "actor_id", viewer.ID)
		return
	}

	history, err := h.Accounts.TransferHistory(r.Context(), id)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.transfers", err, "account_id", id)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": history, "total": len(history)})
}

func (h *Handlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}
	id := chi.URLParam(r, "id")

	updated, err := h.Accounts.SetStatus(r.Context(), viewer.ID, id, req.Status)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.set_status", err, "account_id", id, "actor_id", viewer.ID, "status", req.Status)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}
	req.RoleID = strings.TrimSpace(req.RoleID)
	if req.RoleID == "" {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "role_id is required")
		return
	}
	id := chi.URLParam(r, "id")

	updated, err := h.Accounts.AssignRole(r.Context(), viewer.ID, id, req.RoleID)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.assign_role", err, "account_id", id, "actor_id", viewer.ID, "role_id", req.RoleID)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteAccount soft deletes by default. mode=hard removes the account for
// good; without cascade=true any dependency blocks it with a 409 carrying the
// dependency breakdown.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	mode := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = deleteModeSoft
	}
	cascade, err := commonhandler.ParseBoolParam(r.URL.Query().Get("cascade"), false)
	if err != nil {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "cascade must be a boolean")
		return
	}

	switch mode {
	case deleteModeSoft:
		if err := h.Accounts.SoftDelete(r.Context(), viewer.ID, id); err != nil {
			commonhandler.WriteServiceError(w, h.log, "accounts.soft_delete", err, "account_id", id, "actor_id", viewer.ID)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case deleteModeHard:
		result, err := h.Accounts.HardDelete(r.Context(), viewer.ID, id, cascade)
		if err != nil {
			commonhandler.WriteServiceError(w, h.log, "accounts.hard_delete", err, "account_id", id, "actor_id", viewer.ID, "cascade", cascade)
			return
		}
		if result.Blocked {
			blocked := accountdomain.ErrDependenciesPresent.WithDetails(result.Dependencies.Map())
			commonhandler.WriteServiceError(w, h.log, "accounts.hard_delete", blocked, "account_id", id, "actor_id", viewer.ID)
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "mode must be soft or hard")
	}
}

func (h *Handlers) Dependencies(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	err := h.Guard.Authorize(r.Context(), viewer.ID, permission.AccountsHardDelete)
	var deps accountdomain.Dependencies
	if err == nil {
		deps, err = h.Accounts.Dependencies(r.Context(), id)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.dependencies", err, "account_id", id, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dependencies": deps,
		"total":        deps.Total(),
	})
}

func (h *Handlers) RestoreAccount(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	restored, err := h.Accounts.Restore(r.Context(), viewer.ID, id)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "accounts.restore", err, "account_id", id, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, restored)
}
