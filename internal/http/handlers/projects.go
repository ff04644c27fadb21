package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelops/reelops-api/internal/access"
	"github.com/reelops/reelops-api/internal/domain/project"
)

type ProjectStore interface {
	List(ctx context.Context) ([]project.Project, error)
	GetByID(ctx context.Context, id int64) (project.Project, error)
	Create(ctx context.Context, req project.CreateRequest, creatorID int64) (project.Project, error)
	Update(ctx context.Context, id int64, req project.UpdateRequest) (project.Project, error)
	Delete(ctx context.Context, id int64) error
}

// Authorizer is the access gate as seen by the handlers.
type Authorizer interface {
	Authorize(ctx context.Context, id access.Identity, projectID int64, action access.Action) error
}

type ProjectsHandler struct {
	projects ProjectStore
	gate     Authorizer
}

func NewProjectsHandler(projects ProjectStore, gate Authorizer) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, gate: gate}
}

func (h *ProjectsHandler) ListProjects(ctx *gin.Context) {
	items, err := h.projects.List(ctx.Request.Context())

	if err != nil {
		RespondStoreError(ctx, err, "list projects failed")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *ProjectsHandler) GetProject(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	p, err := h.projects.GetByID(ctx.Request.Context(), id)

	if err != nil {
		RespondStoreError(ctx, err, "get project failed")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

func (h *ProjectsHandler) CreateProject(ctx *gin.Context) {
	caller, ok := identityFrom(ctx)
	if !ok {
		return
	}

	var req project.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondStoreError(ctx, err, "validate project failed")
		return
	}

	p, err := h.projects.Create(ctx.Request.Context(), req, caller.UserID)

	if err != nil {
		RespondStoreError(ctx, err, "create project failed")
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

// UpdateProject applies a partial update; admins and the owning producer only.
func (h *ProjectsHandler) UpdateProject(ctx *gin.Context) {
	caller, ok := identityFrom(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := h.gate.Authorize(ctx.Request.Context(), caller, id, access.Write); err != nil {
		RespondStoreError(ctx, err, "authorize project update failed")
		return
	}

	var req project.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		RespondStoreError(ctx, err, "validate project failed")
		return
	}

	p, err := h.projects.Update(ctx.Request.Context(), id, req)

	if err != nil {
		RespondStoreError(ctx, err, "update project failed")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *ProjectsHandler) DeleteProject(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := h.projects.Delete(ctx.Request.Context(), id); err != nil {
		RespondStoreError(ctx, err, "delete project failed")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
