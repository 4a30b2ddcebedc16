package handler

import (
	"net/http"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/pagination"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
)

// StaffHandler manages the guru and caregiver collections that back role
// resolution.
type StaffHandler struct {
	staff service.StaffService
	auth  *middleware.Auth
}

func NewStaffHandler(staff service.StaffService, auth *middleware.Auth) *StaffHandler {
	return &StaffHandler{staff: staff, auth: auth}
}

func (h *StaffHandler) RegisterRoutes(router *gin.RouterGroup) {
	guru := router.Group("/api/guru")
	guru.Use(h.auth.Authenticate())
	{
		guru.GET("", h.auth.RequirePermission(service.PermStaffRead), h.ListGuru)
		guru.POST("", h.auth.RequirePermission(service.PermStaffWrite), h.CreateGuru)
		guru.PUT("/:id", h.auth.RequirePermission(service.PermStaffWrite), h.UpdateGuru)
		guru.DELETE("/:id", h.auth.RequirePermission(service.PermStaffWrite), h.DeleteGuru)
	}

	caregivers := router.Group("/api/caregivers")
	caregivers.Use(h.auth.Authenticate())
	{
		caregivers.GET("", h.auth.RequirePermission(service.PermStaffRead), h.ListCaregivers)
		caregivers.POST("", h.auth.RequirePermission(service.PermStaffWrite), h.CreateCaregiver)
		caregivers.PUT("/:id", h.auth.RequirePermission(service.PermStaffWrite), h.UpdateCaregiver)
		caregivers.DELETE("/:id", h.auth.RequirePermission(service.PermStaffWrite), h.DeleteCaregiver)
	}
}

// ListGuru
// @Summary      List guru
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        cabang  query  string  false  "Branch"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.StaffResponse}
// @Router       /api/guru [get]
func (h *StaffHandler) ListGuru(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	items, total, err := h.staff.ListGuru(c.Request.Context(), actor, c.Query("cabang"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, p.Meta(total)))
}

// CreateGuru
// @Summary      Register a guru or principal
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.GuruRequest  true  "Guru"
// @Success      201      {object}  response.Response{data=service.StaffResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/guru [post]
func (h *StaffHandler) CreateGuru(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.GuruRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.staff.CreateGuru(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// UpdateGuru
// @Summary      Update a guru
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Guru ID"
// @Param        payload  body      service.GuruRequest  true  "Guru"
// @Success      200      {object}  response.Response{data=service.StaffResponse}
// @Router       /api/guru/{id} [put]
func (h *StaffHandler) UpdateGuru(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.GuruRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.staff.UpdateGuru(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// DeleteGuru
// @Summary      Delete a guru
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Guru ID"
// @Success      200  {object}  response.Response
// @Router       /api/guru/{id} [delete]
func (h *StaffHandler) DeleteGuru(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.staff.DeleteGuru(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Guru deleted successfully"}))
}

// @Summary      List caregivers
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        cabang  query  string  false  "Branch"
// @Success      200  {object}  response.Response{data=[]service.StaffResponse}
// @Router       /api/caregivers [get]
func (h *StaffHandler) ListCaregivers(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)
	items, total, err := h.staff.ListCaregivers(c.Request.Context(), actor, c.Query("cabang"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, p.Meta(total)))
}

// @Summary      Register a caregiver
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CaregiverRequest  true  "Caregiver"
// @Success      201      {object}  response.Response{data=service.StaffResponse}
// @Router       /api/caregivers [post]
func (h *StaffHandler) CreateCaregiver(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.CaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.staff.CreateCaregiver(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// @Summary      Update a caregiver
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Caregiver ID"
// @Param        payload  body      service.CaregiverRequest  true  "Caregiver"
// @Success      200      {object}  response.Response{data=service.StaffResponse}
// @Router       /api/caregivers/{id} [put]
func (h *StaffHandler) UpdateCaregiver(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.CaregiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.staff.UpdateCaregiver(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// @Summary      Delete a caregiver
// @Tags         staff
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Caregiver ID"
// @Success      200  {object}  response.Response
// @Router       /api/caregivers/{id} [delete]
func (h *StaffHandler) DeleteCaregiver(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.staff.DeleteCaregiver(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Caregiver deleted successfully"}))
}
