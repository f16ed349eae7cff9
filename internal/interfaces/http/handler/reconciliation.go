package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reconapp "github.com/invrecon/backend/internal/application/reconciliation"
	"github.com/invrecon/backend/internal/domain/reconciliation"
	"github.com/invrecon/backend/internal/interfaces/http/dto"
)

// ReconciliationHandler handles reconciliation run endpoints
type ReconciliationHandler struct {
	BaseHandler
	service *reconapp.Service
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *reconapp.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// TriggerRunRequest is the request body for triggering a reconciliation run
type TriggerRunRequest struct {
	AsOfDate string `json:"as_of_date" binding:"required"`
	// Scope is "*" for all locations or a comma-separated list of codes
	Scope string `json:"scope"`
}

// TriggerRun starts a reconciliation run and waits for it to finish
func (h *ReconciliationHandler) TriggerRun(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var req TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	asOfDate, err := parseDate(req.AsOfDate)
	if err != nil {
		h.BadRequest(c, "Invalid as_of_date, expected YYYY-MM-DD or RFC3339")
		return
	}
	if req.Scope == "" {
		req.Scope = "*"
	}

	actorID, actorName := getActor(c)
	result, err := h.service.Reconcile(c.Request.Context(), tenantID, reconapp.RunRequest{
		AsOfDate: asOfDate,
		Scope:    req.Scope,
	}, actorID, actorName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetRun returns one run with its largest variances by absolute value. The
// top query parameter bounds how many variance records are included.
func (h *ReconciliationHandler) GetRun(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid run id")
		return
	}
	runID := uuid.MustParse(idReq.ID)

	limit := 0
	if raw := c.Query("top"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			h.BadRequest(c, "Invalid top parameter, expected a positive integer")
			return
		}
	}

	details, err := h.service.GetRunDetails(c.Request.Context(), tenantID, runID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, details)
}

// ListRuns returns the paginated run history, newest first
func (h *ReconciliationHandler) ListRuns(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context required")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := reconciliation.RunFilter{}
	filter.Page = listReq.Page
	filter.PageSize = listReq.PageSize
	filter.OrderBy = listReq.OrderBy
	filter.OrderDir = listReq.OrderDir
	filter.Search = listReq.Search

	if raw := c.Query("status"); raw != "" {
		status := reconciliation.RunStatus(raw)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid status, expected RUNNING, COMPLETED or FAILED")
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("start_date"); raw != "" {
		startDate, err := parseDate(raw)
		if err != nil {
			h.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD or RFC3339")
			return
		}
		filter.StartDate = &startDate
	}
	if raw := c.Query("end_date"); raw != "" {
		endDate, err := parseDate(raw)
		if err != nil {
			h.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD or RFC3339")
			return
		}
		filter.EndDate = &endDate
	}

	page, err := h.service.ListRuns(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
