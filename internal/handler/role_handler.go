package handler

import (
	"net/http"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
	auth        *middleware.Auth
}

func NewRoleHandler(roleService service.RoleService, auth *middleware.Auth) *RoleHandler {
	return &RoleHandler{roleService: roleService, auth: auth}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	roles.Use(h.auth.Authenticate(), h.auth.RequirePermission(service.PermUsersWrite))
	{
		roles.GET("", h.ListRoles)
		roles.POST("/seed", h.Seed)
	}

	// Permissions list
	perms := router.Group("/api/permissions")
	perms.Use(h.auth.Authenticate(), h.auth.RequirePermission(service.PermUsersWrite))
	{
		perms.GET("", h.ListPermissions)
	}
}

// ListRoles returns all roles with their permissions
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// ListPermissions returns all available permissions
// @Summary      List permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Router       /api/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, perms))
}

// Seed restores the built-in roles and their default grants
// @Summary      Re-seed default roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/roles/seed [post]
func (h *RoleHandler) Seed(c *gin.Context) {
	if err := h.roleService.SeedDefaultRolesAndPermissions(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}

	// Invalidate cached permissions so /me returns fresh data
	h.auth.ClearPermissionCache("")

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Default roles seeded"}))
}
