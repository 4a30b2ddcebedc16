package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/pagination"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	submissions service.SubmissionService
	auth        *middleware.Auth
}

func NewSubmissionHandler(submissions service.SubmissionService, auth *middleware.Auth) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, auth: auth}
}

func (h *SubmissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/pengajuan")
	group.Use(h.auth.Authenticate())
	{
		group.GET("", h.auth.RequirePermission(service.PermSubmissionsRead), h.List)
		group.GET("/:id", h.auth.RequirePermission(service.PermSubmissionsRead), h.Get)
		group.POST("", h.auth.RequirePermission(service.PermSubmissionsWrite), h.Submit)
		group.PUT("/:id", h.auth.RequirePermission(service.PermSubmissionsWrite), h.Edit)
		group.DELETE("/:id", h.auth.RequirePermission(service.PermSubmissionsWrite), h.Delete)
		group.POST("/:id/approve", h.auth.RequirePermission(service.PermSubmissionsApprove), h.Approve)
		group.POST("/:id/reject", h.auth.RequirePermission(service.PermSubmissionsApprove), h.Reject)
		group.POST("/:id/realisasi", h.auth.RequirePermission(service.PermRealizationsWrite), h.ReportRealization)
	}
}

// Submit creates a budget submission
// @Summary      Submit a budget request
// @Description  Creates a pengajuan. Branch submissions wait for the Principal, head office submissions go straight to the Director.
// @Tags         pengajuan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitRequest  true  "Submission"
// @Success      201      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/pengajuan [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.submissions.Submit(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// List returns submissions visible to the caller
// @Summary      List submissions
// @Tags         pengajuan
// @Produce      json
// @Security     BearerAuth
// @Param        cabang       query  string  false  "Branch"
// @Param        status       query  string  false  "Status"
// @Param        nomenklatur  query  string  false  "Budget line"
// @Param        bulan        query  string  false  "Month (YYYY-MM)"
// @Param        mine         query  bool    false  "Only my submissions"
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.SubmissionResponse}
// @Router       /api/pengajuan [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false"))

	items, total, err := h.submissions.List(c.Request.Context(), actor, service.SubmissionQuery{
		Cabang:      c.Query("cabang"),
		Status:      c.Query("status"),
		Nomenklatur: c.Query("nomenklatur"),
		Mine:        mine,
		Bulan:       c.Query("bulan"),
		Page:        p.Page,
		Limit:       p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, p.Meta(total)))
}

// Get returns one submission
// @Summary      Get a submission
// @Tags         pengajuan
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  response.Response{data=service.SubmissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/pengajuan/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	res, err := h.submissions.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Edit changes the fields of a pending submission
// @Summary      Edit a submission
// @Tags         pengajuan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Submission ID"
// @Param        payload  body      service.EditSubmissionRequest  true  "Changed fields"
// @Success      200      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/pengajuan/{id} [put]
func (h *SubmissionHandler) Edit(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.EditSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.submissions.Edit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete removes a submission
// @Summary      Delete a submission
// @Tags         pengajuan
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/pengajuan/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.submissions.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Submission deleted successfully"}))
}

// Approve moves a submission to the next stage
// @Summary      Approve a submission
// @Tags         pengajuan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true   "Submission ID"
// @Param        payload  body      service.TransitionRequest  false  "Expected version"
// @Success      200      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/pengajuan/{id}/approve [post]
func (h *SubmissionHandler) Approve(c *gin.Context) {
	h.transition(c, h.submissions.Approve)
}

// Reject closes a submission with a reason
// @Summary      Reject a submission
// @Tags         pengajuan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Submission ID"
// @Param        payload  body      service.TransitionRequest  true  "Rejection reason"
// @Success      200      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/pengajuan/{id}/reject [post]
func (h *SubmissionHandler) Reject(c *gin.Context) {
	h.transition(c, h.submissions.Reject)
}

type transitionFunc func(ctx context.Context, actor service.Actor, id string, req service.TransitionRequest) (*service.SubmissionResponse, error)

func (h *SubmissionHandler) transition(c *gin.Context, apply transitionFunc) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.TransitionRequest
	// An empty body is a plain approval without version check.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	res, err := apply(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ReportRealization records what was actually spent and posts it to the ledger
// @Summary      Report realization
// @Description  Records realisasi for an approved submission and upserts its outflow in arus kas.
// @Tags         pengajuan
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Submission ID"
// @Param        payload  body      service.RealizationRequest  true  "Realization"
// @Success      200      {object}  response.Response{data=service.SubmissionResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/pengajuan/{id}/realisasi [post]
func (h *SubmissionHandler) ReportRealization(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.RealizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.submissions.ReportRealization(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
