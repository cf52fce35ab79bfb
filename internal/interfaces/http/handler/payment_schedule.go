package handler

import (
	"github.com/gin-gonic/gin"

	procapp "github.com/Vinicius2501/aqua-erp-sub001/internal/application/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
)

// PaymentScheduleHandler serves payment window resolution and installment schedules
type PaymentScheduleHandler struct {
	BaseHandler
	scheduleService *procapp.PaymentScheduleService
}

// NewPaymentScheduleHandler creates a new PaymentScheduleHandler
func NewPaymentScheduleHandler(scheduleService *procapp.PaymentScheduleService) *PaymentScheduleHandler {
	return &PaymentScheduleHandler{scheduleService: scheduleService}
}

// PaymentWindowsQuery selects the supplier scope
type PaymentWindowsQuery struct {
	Scope procurement.SupplierScope `form:"scope" binding:"required,supplier_scope"`
}

// PaymentWindows lists the windows of a supplier scope
// GET /api/v1/procurement/payment-windows?scope=domestic
func (h *PaymentScheduleHandler) PaymentWindows(c *gin.Context) {
	var query PaymentWindowsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.scheduleService.PaymentWindows(query.Scope)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// NextPaymentDate resolves the first payment window far enough from the open date
// POST /api/v1/procurement/payment-windows/next
func (h *PaymentScheduleHandler) NextPaymentDate(c *gin.Context) {
	var req procapp.NextPaymentDateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.scheduleService.NextPaymentDate(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// BuildSchedule builds the installment schedule of an order
// POST /api/v1/procurement/purchase-orders/schedule
func (h *PaymentScheduleHandler) BuildSchedule(c *gin.Context) {
	var req procapp.BuildScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.scheduleService.BuildSchedule(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReconcileInstallments reconciles allocations into installments without an order
// POST /api/v1/procurement/installments/reconcile
func (h *PaymentScheduleHandler) ReconcileInstallments(c *gin.Context) {
	var req procapp.ReconcileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.scheduleService.Reconcile(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
