package handler

import (
	"time"

	financeapp "github.com/erp/payables/internal/application/finance"
	"github.com/erp/payables/internal/domain/finance"
	"github.com/erp/payables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dateLayout is the wire format of calendar dates
const dateLayout = "2006-01-02"

// PayableHandler handles payable, launch and recurrence endpoints
type PayableHandler struct {
	BaseHandler
	service *financeapp.PayableService
}

// NewPayableHandler creates a new PayableHandler
func NewPayableHandler(service *financeapp.PayableService) *PayableHandler {
	return &PayableHandler{service: service}
}

// ===================== Request DTOs =====================

// CreatePayableRequest is the body of POST /payables
type CreatePayableRequest struct {
	EntryNumber    string          `json:"entry_number" binding:"max=50"`
	CustomerID     string          `json:"customer_id" binding:"required,uuid"`
	CategoryID     string          `json:"category_id" binding:"omitempty,uuid"`
	DocumentTypeID string          `json:"document_type_id" binding:"omitempty,uuid"`
	DocumentID     string          `json:"document_id" binding:"max=100"`
	BankAccountID  string          `json:"bank_account_id" binding:"omitempty,uuid"`
	Description    string          `json:"description" binding:"max=500"`
	Remark         string          `json:"remark"`
	GrossAmount    decimal.Decimal `json:"gross_amount" binding:"required,gt=0"`
	DueDate        string          `json:"due_date" binding:"required,datetime=2006-01-02"`
	IssueDate      string          `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdatePayableRequest is the body of PUT /payables/:id
type UpdatePayableRequest struct {
	CreatePayableRequest
	Version int `json:"version" binding:"gte=0"`
}

// CancelPayableRequest is the body of POST /payables/:id/cancel
type CancelPayableRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListPayablesQuery holds the query string of GET /payables
type ListPayablesQuery struct {
	dto.ListRequest
	Status        string `form:"status" binding:"omitempty,payable_status"`
	CustomerID    string `form:"customer_id" binding:"omitempty,uuid"`
	CategoryID    string `form:"category_id" binding:"omitempty,uuid"`
	BankAccountID string `form:"bank_account_id" binding:"omitempty,uuid"`
	RecurrenceID  string `form:"recurrence_id" binding:"omitempty,uuid"`
	DueFrom       string `form:"due_from" binding:"omitempty,datetime=2006-01-02"`
	DueTo         string `form:"due_to" binding:"omitempty,datetime=2006-01-02"`
	MinAmount     string `form:"min_amount" binding:"omitempty,numeric"`
	MaxAmount     string `form:"max_amount" binding:"omitempty,numeric"`
}

// AddLaunchRequest is the body of POST /payables/:id/launches
type AddLaunchRequest struct {
	TypeID      string          `json:"type_id" binding:"required"`
	Mode        string          `json:"mode" binding:"omitempty,launch_mode"`
	Value       decimal.Decimal `json:"value" binding:"required,gt=0"`
	Date        string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Description string          `json:"description" binding:"max=500"`
}

// RecurrenceRequest is the body of POST /payables/:id/recurrences/simulate
type RecurrenceRequest struct {
	Period      string `json:"period" binding:"required,recurrence_period"`
	Count       int    `json:"count" binding:"gte=1"`
	WeekendRule string `json:"weekend_rule" binding:"omitempty,weekend_rule"`
	RepeatDay   int    `json:"repeat_day" binding:"gte=0,lte=31"`
}

// CreateRecurrencesRequest is the body of POST /payables/:id/recurrences.
// Overrides are keyed by installment label, e.g. "003/012".
type CreateRecurrencesRequest struct {
	RecurrenceRequest
	Overrides map[string]finance.SimulationOverrides `json:"overrides"`
}

// DeleteRecurrencesRequest is the body of DELETE /recurrences/:recurrence_id
type DeleteRecurrencesRequest struct {
	EntryIDs []string `json:"entry_ids" binding:"required,min=1,dive,uuid"`
}

func (r RecurrenceRequest) toApp() financeapp.RecurrenceRequest {
	return financeapp.RecurrenceRequest{
		Period:      r.Period,
		Count:       r.Count,
		WeekendRule: r.WeekendRule,
		RepeatDay:   r.RepeatDay,
	}
}

func (r CreatePayableRequest) toApp() financeapp.CreatePayableRequest {
	// Formats were checked by the binding tags
	due, _ := time.Parse(dateLayout, r.DueDate)
	return financeapp.CreatePayableRequest{
		EntryNumber:    r.EntryNumber,
		CustomerID:     uuid.MustParse(r.CustomerID),
		CategoryID:     optionalUUID(r.CategoryID),
		DocumentTypeID: optionalUUID(r.DocumentTypeID),
		DocumentID:     r.DocumentID,
		BankAccountID:  optionalUUID(r.BankAccountID),
		Description:    r.Description,
		Remark:         r.Remark,
		GrossAmount:    r.GrossAmount,
		DueDate:        due,
		IssueDate:      optionalDate(r.IssueDate),
	}
}

func (q ListPayablesQuery) toApp() financeapp.ListPayablesRequest {
	return financeapp.ListPayablesRequest{
		Search:        q.Search,
		Status:        q.Status,
		CustomerID:    optionalUUID(q.CustomerID),
		CategoryID:    optionalUUID(q.CategoryID),
		BankAccountID: optionalUUID(q.BankAccountID),
		RecurrenceID:  optionalUUID(q.RecurrenceID),
		DueFrom:       optionalDate(q.DueFrom),
		DueTo:         optionalDate(q.DueTo),
		MinAmount:     optionalDecimal(q.MinAmount),
		MaxAmount:     optionalDecimal(q.MaxAmount),
		Page:          q.Page,
		PageSize:      q.PageSize,
		OrderBy:       q.OrderBy,
		OrderDir:      q.OrderDir,
	}
}

func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func optionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// ===================== Payables =====================

// ListPayables godoc
// @Summary      List payable entries
// @Description  Retrieve a paginated list of payable entries. OVERDUE is derived from the due date and today.
// @Tags         payables
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        search query string false "Search term (description, entry number, installment label)"
// @Param        status query string false "Status" Enums(PENDING, OVERDUE, PAID, CANCELLED)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        category_id query string false "Category ID" format(uuid)
// @Param        bank_account_id query string false "Bank account ID" format(uuid)
// @Param        recurrence_id query string false "Recurrence group ID" format(uuid)
// @Param        due_from query string false "Due from (YYYY-MM-DD)" format(date)
// @Param        due_to query string false "Due to (YYYY-MM-DD)" format(date)
// @Param        min_amount query string false "Minimum gross amount"
// @Param        max_amount query string false "Maximum gross amount"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]financeapp.PayableResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables [get]
func (h *PayableHandler) ListPayables(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var query ListPayablesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindingError(c, err)
		return
	}
	defaults := dto.DefaultListRequest()
	if query.Page == 0 {
		query.Page = defaults.Page
	}
	if query.PageSize == 0 {
		query.PageSize = defaults.PageSize
	}

	items, total, err := h.service.ListPayables(c.Request.Context(), tenantID, query.toApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, query.Page, query.PageSize)
}

// GetPayable godoc
// @Summary      Get payable entry by ID
// @Description  Retrieve a payable entry with its launches and balance
// @Tags         payables
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id} [get]
func (h *PayableHandler) GetPayable(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetPayable(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreatePayable godoc
// @Summary      Create payable entry
// @Description  Create a standalone payable entry. The entry number defaults to the next DES number.
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        request body CreatePayableRequest true "Payable entry"
// @Success      201 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables [post]
func (h *PayableHandler) CreatePayable(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req CreatePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	resp, err := h.service.CreatePayable(c.Request.Context(), tenantID, req.toApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdatePayable godoc
// @Summary      Update payable entry
// @Description  Replace the editable fields of a payable entry. A non-zero version must match the stored one.
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body UpdatePayableRequest true "Payable entry"
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id} [put]
func (h *PayableHandler) UpdatePayable(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdatePayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	resp, err := h.service.UpdatePayable(c.Request.Context(), tenantID, id, financeapp.UpdatePayableRequest{
		CreatePayableRequest: req.CreatePayableRequest.toApp(),
		Version:              req.Version,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelPayable godoc
// @Summary      Cancel payable entry
// @Description  Mark a payable entry as cancelled
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body CancelPayableRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id}/cancel [post]
func (h *PayableHandler) CancelPayable(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req CancelPayableRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindingError(c, err)
			return
		}
	}
	resp, err := h.service.CancelPayable(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeletePayable godoc
// @Summary      Delete payable entry
// @Description  Delete a payable entry. Paid entries are rejected.
// @Tags         payables
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id} [delete]
func (h *PayableHandler) DeletePayable(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePayable(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ===================== Launches =====================

// AddLaunch godoc
// @Summary      Add launch
// @Description  Append a fixed or percentage launch to the entry ledger
// @Tags         launches
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body AddLaunchRequest true "Launch"
// @Success      201 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id}/launches [post]
func (h *PayableHandler) AddLaunch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req AddLaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	app := financeapp.AddLaunchRequest{
		TypeID:      req.TypeID,
		Mode:        req.Mode,
		Value:       req.Value,
		Description: req.Description,
	}
	if d := optionalDate(req.Date); d != nil {
		app.Date = *d
	}
	resp, err := h.service.AddLaunch(c.Request.Context(), tenantID, id, app)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RemoveLaunch godoc
// @Summary      Remove launch
// @Description  Remove a launch and refold the entry ledger
// @Tags         launches
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Param        launch_id path string true "Launch ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id}/launches/{launch_id} [delete]
func (h *PayableHandler) RemoveLaunch(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	launchID, ok := h.parseUUIDParam(c, "launch_id")
	if !ok {
		return
	}
	resp, err := h.service.RemoveLaunch(c.Request.Context(), tenantID, id, launchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLaunchTypes godoc
// @Summary      List launch types
// @Description  List the configured launch type catalogue
// @Tags         launches
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Success      200 {object} dto.Response{data=[]financeapp.LaunchTypeResponse}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /launch-types [get]
func (h *PayableHandler) ListLaunchTypes(c *gin.Context) {
	h.Success(c, h.service.ListLaunchTypes())
}

// ===================== Recurrences =====================

// SimulateRecurrences godoc
// @Summary      Simulate recurrences
// @Description  Project the installments that would follow the entry
// @Tags         recurrences
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body RecurrenceRequest true "Recurrence rule"
// @Success      200 {object} dto.Response{data=financeapp.SimulationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id}/recurrences/simulate [post]
func (h *PayableHandler) SimulateRecurrences(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req RecurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	resp, err := h.service.SimulateRecurrences(c.Request.Context(), tenantID, id, req.toApp())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateRecurrences godoc
// @Summary      Create recurrences
// @Description  Turn the entry into the first installment of a recurrence group
// @Tags         recurrences
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        id path string true "Payable ID" format(uuid)
// @Param        request body CreateRecurrencesRequest true "Recurrence rule and overrides by installment label"
// @Success      201 {object} dto.Response{data=financeapp.GroupPlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id}/recurrences [post]
func (h *PayableHandler) CreateRecurrences(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateRecurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	resp, err := h.service.CreateRecurrences(c.Request.Context(), tenantID, id, financeapp.CreateRecurrencesRequest{
		RecurrenceRequest: req.toApp(),
		Overrides:         req.Overrides,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetRecurrenceGroup godoc
// @Summary      Get recurrence group
// @Description  List the members of a recurrence group in installment order
// @Tags         recurrences
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        recurrence_id path string true "Recurrence group ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.RecurrenceGroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /recurrences/{recurrence_id} [get]
func (h *PayableHandler) GetRecurrenceGroup(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	recurrenceID, ok := h.parseUUIDParam(c, "recurrence_id")
	if !ok {
		return
	}
	resp, err := h.service.GetRecurrenceGroup(c.Request.Context(), tenantID, recurrenceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteRecurrences godoc
// @Summary      Delete recurrence members
// @Description  Delete members of a recurrence group and renumber the survivors
// @Tags         recurrences
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        recurrence_id path string true "Recurrence group ID" format(uuid)
// @Param        request body DeleteRecurrencesRequest true "Entries to delete"
// @Success      200 {object} dto.Response{data=financeapp.GroupPlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /recurrences/{recurrence_id} [delete]
func (h *PayableHandler) DeleteRecurrences(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	recurrenceID, ok := h.parseUUIDParam(c, "recurrence_id")
	if !ok {
		return
	}
	var req DeleteRecurrencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	ids := make([]uuid.UUID, len(req.EntryIDs))
	for i, s := range req.EntryIDs {
		ids[i] = uuid.MustParse(s)
	}
	resp, err := h.service.DeleteRecurrences(c.Request.Context(), tenantID, recurrenceID, ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPendingPlans godoc
// @Summary      List pending group plans
// @Description  List failed recurrence plans waiting to be resumed
// @Tags         recurrences
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Success      200 {object} dto.Response{data=[]financeapp.PendingPlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /recurrence-plans [get]
func (h *PayableHandler) ListPendingPlans(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	h.Success(c, h.service.ListPendingPlans(c.Request.Context(), tenantID))
}

// ResumeGroupPlan godoc
// @Summary      Resume group plan
// @Description  Run the steps a failed recurrence plan left pending
// @Tags         recurrences
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (falls back to http.default_tenant_id)"
// @Param        plan_id path string true "Plan ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.GroupPlanResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /recurrence-plans/{plan_id}/resume [post]
func (h *PayableHandler) ResumeGroupPlan(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	planID, ok := h.parseUUIDParam(c, "plan_id")
	if !ok {
		return
	}
	resp, err := h.service.ResumeGroupPlan(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes mounts the payables API on rg
func (h *PayableHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payables := rg.Group("/payables")
	{
		payables.GET("", h.ListPayables)
		payables.POST("", h.CreatePayable)
		payables.GET("/:id", h.GetPayable)
		payables.PUT("/:id", h.UpdatePayable)
		payables.DELETE("/:id", h.DeletePayable)
		payables.POST("/:id/cancel", h.CancelPayable)
		payables.POST("/:id/launches", h.AddLaunch)
		payables.DELETE("/:id/launches/:launch_id", h.RemoveLaunch)
		payables.POST("/:id/recurrences/simulate", h.SimulateRecurrences)
		payables.POST("/:id/recurrences", h.CreateRecurrences)
	}

	rg.GET("/launch-types", h.ListLaunchTypes)

	recurrences := rg.Group("/recurrences")
	{
		recurrences.GET("/:recurrence_id", h.GetRecurrenceGroup)
		recurrences.DELETE("/:recurrence_id", h.DeleteRecurrences)
	}

	plans := rg.Group("/recurrence-plans")
	{
		plans.GET("", h.ListPendingPlans)
		plans.POST("/:plan_id/resume", h.ResumeGroupPlan)
	}
}
