package families

import (
	"net/http"

	familydomain "family-registry-go/internal/domain/family"
	commonhandler "family-registry-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type personRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Gender       string `json:"gender"`
	BirthDate    string `json:"birth_date"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
}

type addMemberRequest struct {
	personRequest
	CreateLogin bool   `json:"create_login"`
	Password    string `json:"password"`
}

type updateMemberRequest struct {
	Name         *string `json:"name"`
	Relationship *string `json:"relationship"`
	Gender       *string `json:"gender"`
	BirthDate    *string `json:"birth_date"`
	Email        *string `json:"email"`
	Mobile       *string `json:"mobile"`
}

type reviewRequest struct {
	Note string `json:"note"`
}

func (h *Handlers) GetFamily(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	familyID := chi.URLParam(r, "family_id")

	overview, err := h.Families.FamilyOverview(r.Context(), viewer.ID, familyID)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "families.get", err, "family_id", familyID, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	ownerID := chi.URLParam(r, "id")

	members, err := h.Families.ListMembers(r.Context(), viewer.ID, ownerID)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "members.list", err, "owner_id", ownerID, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": members, "total": len(members)})
}

func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}
	birthDate, err := commonhandler.ParseDateParam(req.BirthDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "birth_date must be YYYY-MM-DD")
		return
	}
	ownerID := chi.URLParam(r, "id")

	result, err := h.Families.AddMember(r.Context(), familydomain.AddMemberInput{
		ActorID:        viewer.ID,
		OwnerAccountID: ownerID,
		Person: familydomain.Person{
			Name:         req.Name,
			Relationship: req.Relationship,
			Gender:       req.Gender,
			BirthDate:    birthDate,
			Email:        req.Email,
			Mobile:       req.Mobile,
		},
		CreateLogin: req.CreateLogin,
		Password:    req.Password,
	})
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "members.add", err, "owner_id", ownerID, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *Handlers) GetMember(w http.ResponseWriter, r *http.Request) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "id")

	member, err := h.Families.GetMember(r.Context(), viewer.ID, memberID)
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, "members.get", err, "member_id", memberID, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *Handlers) UpdateMember(w http.ResponseWriter, r *http.Request) {
	h.updateMember(w, r, false)
}

func (h *Handlers) AdminUpdateMember(w http.ResponseWriter, r *http.Request) {
	h.updateMember(w, r, true)
}

func (h *Handlers) updateMember(w http.ResponseWriter, r *http.Request, admin bool) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		commonhandler.WriteInvalidJSON(w)
		return
	}
	input := familydomain.UpdateMemberInput{
		Name:         req.Name,
		Relationship: req.Relationship,
		Gender:       req.Gender,
		Email:        req.Email,
		Mobile:       req.Mobile,
	}
	if req.BirthDate != nil {
		birthDate, err := commonhandler.ParseDateParam(*req.BirthDate)
		if err != nil || birthDate == nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "birth_date must be YYYY-MM-DD")
			return
		}
		input.BirthDate = birthDate
	}
	memberID := chi.URLParam(r, "id")

	var (
		updated *familydomain.MemberRecord
		err     error
		op      = "members.update"
	)
	if admin {
		op = "members.admin_update"
		updated, err = h.Families.AdminUpdateMember(r.Context(), viewer.ID, memberID, input)
	} else {
		updated, err = h.Families.UpdateMember(r.Context(), viewer.ID, memberID, input)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, op, err, "member_id", memberID, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	h.deleteMember(w, r, false)
}

func (h *Handlers) AdminDeleteMember(w http.ResponseWriter, r *http.Request) {
	h.deleteMember(w, r, true)
}

func (h *Handlers) deleteMember(w http.ResponseWriter, r *http.Request, admin bool) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	memberID := chi.URLParam(r, "id")

	var (
		err error
		op  = "members.delete"
	)
	if admin {
		op = "members.admin_delete"
		err = h.Families.AdminDeleteMember(r.Context(), viewer.ID, memberID)
	} else {
		err = h.Families.DeleteMember(r.Context(), viewer.ID, memberID)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, op, err, "member_id", memberID, "actor_id", viewer.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ApproveMember(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

func (h *Handlers) RejectMember(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *Handlers) review(w http.ResponseWriter, r *http.Request, approve bool) {
	viewer, ok := actor(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			commonhandler.WriteInvalidJSON(w)
			return
		}
	}
	memberID := chi.URLParam(r, "id")

	var (
		member *familydomain.MemberRecord
		err    error
		op     = "members.reject"
	)
	if approve {
		op = "members.approve"
		member, err = h.Families.ApproveMember(r.Context(), viewer.ID, memberID, req.Note)
	} else {
		member, err = h.Families.RejectMember(r.Context(), viewer.ID, memberID, req.Note)
	}
	if err != nil {
		commonhandler.WriteServiceError(w, h.log, op, err, "member_id", memberID, "actor_id", viewer.ID)
		return
	}

	writeJSON(w, http.StatusOK, member)
}
