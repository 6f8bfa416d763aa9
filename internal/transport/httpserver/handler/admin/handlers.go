package admin

import (
	"net/http"
	"strings"

	auditdomain "family-registry-go/internal/domain/audit"
	integritydomain "family-registry-go/internal/domain/integrity"
	"family-registry-go/internal/domain/permission"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	"family-registry-go/internal/transport/httpserver/middleware"
	"family-registry-go/pkg/logger"
)

type Handlers struct {
	Audit     *auditdomain.Service
	Integrity *integritydomain.Service
	Guard     permission.Authorizer
	log       logger.Logger
}

func New(audit *auditdomain.Service, integrity *integritydomain.Service, guard permission.Authorizer, log logger.Logger) *Handlers {
	return &Handlers{
		Audit:     audit,
		Integrity: integrity,
		Guard:     guard,
		log:       log,
	}
}

func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return
	}

	query := r.URL.Query()
	limit, err := commonhandler.ParseIntParam(query.Get("limit"), 0)
	if err != nil {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
		return
	}
	offset, err := commonhandler.ParseIntParam(query.Get("offset"), 0)
	if err != nil {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "offset must be a non-negative integer")
		return
	}
	filter := auditdomain.ListFilter{
		Action:          auditdomain.Action(strings.TrimSpace(query.Get("action"))),
		TargetAccountID: strings.TrimSpace(query.Get("target_account_id")),
		Limit:           limit,
		Offset:          offset,
	}

	err = h.Guard.Authorize(r.Context(), actorID, permission.AuditView)
	var (
		entries []auditdomain.Entry
		total   int64
	)
	if err == nil {
		entries, total, err = h.Audit.List(r.Context(), filter)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "audit.list", err, "actor_id", actorID)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": entries, "total": total})
}

func (h *Handlers) RunIntegrity(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return
	}
	repair, err := commonhandler.ParseBoolParam(r.URL.Query().Get("repair"), false)
	if err != nil {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "repair must be a boolean")
		return
	}

	report, err := h.Integrity.RunAs(r.Context(), actorID, repair)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "integrity.run", err, "actor_id", actorID, "repair", repair)
		return
	}

	commonhandler.WriteJSON(w, http.StatusOK, report)
}
