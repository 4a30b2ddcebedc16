package handler

import (
	"net/http"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
)

type ScopeHandler struct {
	scope service.ScopeService
	auth  *middleware.Auth
}

func NewScopeHandler(scope service.ScopeService, auth *middleware.Auth) *ScopeHandler {
	return &ScopeHandler{scope: scope, auth: auth}
}

func (h *ScopeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/scope", h.auth.Authenticate(), h.auth.RequirePermission(service.PermScopeRead), h.Narrow)
}

// Narrow returns the branch, class and student options for a selection
// @Summary      Cabang / kelas / siswa filter
// @Description  Lists all branches, the classes of the selected branch and the students of the selected class.
// @Tags         scope
// @Produce      json
// @Security     BearerAuth
// @Param        cabang  query  string  false  "Selected branch"
// @Param        kelas   query  string  false  "Selected class (id or name)"
// @Success      200  {object}  response.Response{data=service.Scope}
// @Router       /api/scope [get]
func (h *ScopeHandler) Narrow(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	res, err := h.scope.Narrow(c.Request.Context(), actor, c.Query("cabang"), c.Query("kelas"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
