package families

import (
	"net/http"

	transferdomain "family-registry-go/internal/domain/transfer"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
)

type transferRequest struct {
	CurrentPrimaryID string   `json:"current_primary_id"`
	NewPrimaryID     string   `json:"new_primary_id"`
	Reason           string   `json:"reason"`
	MemberRecordIDs  []string `json:"member_record_ids"`
	MarkDeceased     bool     `json:"mark_deceased"`
}

func (h *Handlers) TransferPrimary(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}

	outcome, err := h.Transfers.TransferPrimary(r.Context(), transferdomain.TransferInput{
		ActorID:          viewer.ID,
		CurrentPrimaryID: req.CurrentPrimaryID,
		NewPrimaryID:     req.NewPrimaryID,
		Reason:           req.Reason,
		MemberRecordIDs:  req.MemberRecordIDs,
		MarkDeceased:     req.MarkDeceased,
	})
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "transfers.primary", err,
			"actor_id", viewer.ID,
			"current_primary_id", req.CurrentPrimaryID,
			"new_primary_id", req.NewPrimaryID,
		)
		return
	}

	h.log.Info("transfers.primary: completed",
		"family_id", outcome.Current.FamilyID,
		"from_id", outcome.Previous.ID,
		"to_id", outcome.Current.ID,
		"migrated_count", outcome.MigratedCount,
	)
	writeJSON(w, http.StatusOK, outcome)
}
