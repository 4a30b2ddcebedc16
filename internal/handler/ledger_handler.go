package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"yayasan/internal/middleware"
	"yayasan/internal/service"
	"yayasan/pkg/pagination"
	"yayasan/pkg/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LedgerHandler struct {
	ledger service.LedgerService
	auth   *middleware.Auth
}

func NewLedgerHandler(ledger service.LedgerService, auth *middleware.Auth) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, auth: auth}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/arus-kas")
	group.Use(h.auth.Authenticate())
	{
		group.GET("", h.auth.RequirePermission(service.PermLedgerRead), h.List)
		group.GET("/summary", h.auth.RequirePermission(service.PermLedgerRead), h.Summary)
		group.GET("/export", h.auth.RequirePermission(service.PermLedgerRead), h.Export)
		group.GET("/periods", h.auth.RequirePermission(service.PermLedgerRead), h.Periods)
		group.POST("", h.auth.RequirePermission(service.PermLedgerWrite), h.Create)
		group.PUT("/:id", h.auth.RequirePermission(service.PermLedgerWrite), h.Update)
		group.DELETE("/:id", h.auth.RequirePermission(service.PermLedgerWrite), h.Delete)
	}
}

func ledgerQuery(c *gin.Context) (service.LedgerQuery, pagination.Params) {
	p := pagination.Parse(c)
	return service.LedgerQuery{
		Cabang: c.Query("cabang"),
		Jenis:  c.Query("jenis"),
		Bulan:  c.Query("bulan"),
		Page:   p.Page,
		Limit:  p.Limit,
	}, p
}

// List returns cash-flow entries
// @Summary      List arus kas entries
// @Tags         arus-kas
// @Produce      json
// @Security     BearerAuth
// @Param        cabang  query  string  false  "Branch"
// @Param        jenis   query  string  false  "Masuk or Keluar"
// @Param        bulan   query  string  false  "Month (YYYY-MM)"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=[]service.LedgerEntryResponse}
// @Router       /api/arus-kas [get]
func (h *LedgerHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	q, p := ledgerQuery(c)
	items, total, err := h.ledger.ListEntries(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, items, p.Meta(total)))
}

// Summary returns inflow, outflow and balance for the filter
// @Summary      Arus kas summary
// @Tags         arus-kas
// @Produce      json
// @Security     BearerAuth
// @Param        cabang  query  string  false  "Branch"
// @Param        bulan   query  string  false  "Month (YYYY-MM)"
// @Success      200  {object}  response.Response{data=service.LedgerSummary}
// @Router       /api/arus-kas/summary [get]
func (h *LedgerHandler) Summary(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	q, _ := ledgerQuery(c)
	res, err := h.ledger.Summary(c.Request.Context(), actor, q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Export downloads the filtered entries as a spreadsheet
// @Summary      Export arus kas
// @Tags         arus-kas
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        cabang  query  string  false  "Branch"
// @Param        bulan   query  string  false  "Month (YYYY-MM)"
// @Success      200
// @Router       /api/arus-kas/export [get]
func (h *LedgerHandler) Export(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	q, _ := ledgerQuery(c)

	// Buffer first so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.ledger.Export(c.Request.Context(), actor, q, &buf); err != nil {
		writeError(c, err)
		return
	}

	name := fmt.Sprintf("arus-kas-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Periods returns inflow, outflow and running balance per period
// @Summary      Arus kas per period
// @Tags         arus-kas
// @Produce      json
// @Security     BearerAuth
// @Param        cabang      query  string  false  "Branch"
// @Param        group_by    query  string  false  "week, month, quarter or year (default month)"
// @Param        start_date  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        end_date    query  string  false  "End date (YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=[]service.CashflowPoint}
// @Router       /api/arus-kas/periods [get]
func (h *LedgerHandler) Periods(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	res, err := h.ledger.Cashflow(c.Request.Context(), actor, service.CashflowQuery{
		Cabang:    c.Query("cabang"),
		GroupBy:   c.Query("group_by"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Create records a manual cash-flow entry
// @Summary      Create arus kas entry
// @Tags         arus-kas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.LedgerEntryRequest  true  "Entry"
// @Success      201      {object}  response.Response{data=service.LedgerEntryResponse}
// @Router       /api/arus-kas [post]
func (h *LedgerHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.ledger.CreateEntry(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Update edits a manual cash-flow entry
// @Summary      Update arus kas entry
// @Tags         arus-kas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Entry ID"
// @Param        payload  body      service.LedgerEntryRequest  true  "Entry"
// @Success      200      {object}  response.Response{data=service.LedgerEntryResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/arus-kas/{id} [put]
func (h *LedgerHandler) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.LedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.ledger.UpdateEntry(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// Delete removes a cash-flow entry
// @Summary      Delete arus kas entry
// @Tags         arus-kas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Router       /api/arus-kas/{id} [delete]
func (h *LedgerHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteEntry(c.Request.Context(), actor, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Entry deleted successfully"}))
}
