package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/access"
	"github.com/reelops/reelops-api/internal/domain/member"
)

type MemberStore interface {
	Add(ctx context.Context, projectID int64, req member.AddRequest) (member.Member, error)
	ListByProject(ctx context.Context, projectID int64) ([]member.Member, error)
	Update(ctx context.Context, projectID, id int64, req member.UpdateRequest) (member.Member, error)
	Remove(ctx context.Context, projectID, id int64) error
}

// CastCrewHandler serves /projects/:id/cast-crew. Every operation passes the
// gate for the parent project before the store is touched.
type CastCrewHandler struct {
	members MemberStore
	gate    Authorizer
}

func NewCastCrewHandler(members MemberStore, gate Authorizer) *CastCrewHandler {
	return &CastCrewHandler{members: members, gate: gate}
}

// authorize resolves the caller and project id and runs the gate.
func (h *CastCrewHandler) authorize(ctx *gin.Context, action access.Action) (int64, bool) {
	caller, ok := identityFrom(ctx)
	if !ok {
		return 0, false
	}

	projectID, ok := pathID(ctx, "id")
	if !ok {
		return 0, false
	}

	if err := h.gate.Authorize(ctx.Request.Context(), caller, projectID, action); err != nil {
		RespondStoreError(ctx, err, "authorize cast/crew access failed")
		return 0, false
	}

	return projectID, true
}

func (h *CastCrewHandler) ListMembers(ctx *gin.Context) {
	projectID, ok := h.authorize(ctx, access.Read)
	if !ok {
		return
	}

	items, err := h.members.ListByProject(ctx.Request.Context(), projectID)

	if err != nil {
		RespondStoreError(ctx, err, "list cast/crew failed")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *CastCrewHandler) AddMember(ctx *gin.Context) {
	projectID, ok := h.authorize(ctx, access.Write)
	if !ok {
		return
	}

	var req member.AddRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondStoreError(ctx, err, "validate cast/crew failed")
		return
	}

	m, err := h.members.Add(ctx.Request.Context(), projectID, req)

	if err != nil {
		RespondStoreError(ctx, err, "add cast/crew failed")
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

func (h *CastCrewHandler) UpdateMember(ctx *gin.Context) {
	projectID, ok := h.authorize(ctx, access.Write)
	if !ok {
		return
	}

	memberID, ok := pathID(ctx, "memberId")
	if !ok {
		return
	}

	var req member.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondStoreError(ctx, err, "validate cast/crew failed")
		return
	}

	m, err := h.members.Update(ctx.Request.Context(), projectID, memberID, req)

	if err != nil {
		RespondStoreError(ctx, err, "update cast/crew failed")
		return
	}

	ctx.JSON(http.StatusOK, m)
}

func (h *CastCrewHandler) RemoveMember(ctx *gin.Context) {
	projectID, ok := h.authorize(ctx, access.Write)
	if !ok {
		return
	}

	memberID, ok := pathID(ctx, "memberId")
	if !ok {
		return
	}

	if err := h.members.Remove(ctx.Request.Context(), projectID, memberID); err != nil {
		RespondStoreError(ctx, err, "remove cast/crew failed")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
