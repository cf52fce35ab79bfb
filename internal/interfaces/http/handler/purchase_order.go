package handler

import (
	"github.com/gin-gonic/gin"

	procapp "github.com/Vinicius2501/aqua-erp-sub001/internal/application/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
)

// PurchaseOrderHandler serves the purchase order lifecycle: creation,
// submission, approval decisions, contract linking and finalization.
// Orders travel in the request body; the caller persists the returned snapshot.
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *procapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *procapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// AllowedStepsQuery selects the status whose steps are listed
type AllowedStepsQuery struct {
	Status procurement.Status `form:"status" binding:"required,po_status"`
}

// AllowedStepsResponse lists the steps a status may carry
type AllowedStepsResponse struct {
	Status procurement.Status `json:"status"`
	Steps  []procurement.Step `json:"steps"`
}

// LifecycleValidationResponse reports whether a pair is legal. An illegal
// pair is still a 200; Violation says why.
type LifecycleValidationResponse struct {
	procapp.ValidateTransitionResponse
	Violation *dto.ErrorInfo `json:"violation,omitempty"`
}

// AllowedSteps lists the steps of a status
// GET /api/v1/procurement/lifecycle/steps?status=approved
func (h *PurchaseOrderHandler) AllowedSteps(c *gin.Context) {
	var query AllowedStepsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.handleBindError(c, err)
		return
	}
	h.Success(c, AllowedStepsResponse{
		Status: query.Status,
		Steps:  procurement.AllowedSteps(query.Status),
	})
}

// ValidateLifecycle checks a status/step pair and an optional type/subtype pair
// POST /api/v1/procurement/lifecycle/validate
func (h *PurchaseOrderHandler) ValidateLifecycle(c *gin.Context) {
	var req procapp.ValidateTransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.ValidateTransition(c.Request.Context(), req)
	if resp == nil {
		h.HandleDomainError(c, err)
		return
	}
	out := LifecycleValidationResponse{ValidateTransitionResponse: *resp}
	if err != nil {
		out.Violation = &dto.ErrorInfo{Code: dto.ErrCodeInvalidState, Message: err.Error()}
	}
	h.Success(c, out)
}

// Create opens a draft purchase order
// POST /api/v1/procurement/purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req procapp.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, resp)
}

// Submit sends a draft for approval
// POST /api/v1/procurement/purchase-orders/submit
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	var req procapp.SubmitPurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Decide records the caller's decision on the next pending approval step.
// The approver is always the X-User-ID actor, whatever the body says.
// POST /api/v1/procurement/purchase-orders/decide
func (h *PurchaseOrderHandler) Decide(c *gin.Context) {
	actorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "X-User-ID is required to decide an approval step")
		return
	}

	var req procapp.DecideStepRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.ActorID = actorID

	resp, err := h.orderService.DecideStep(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// ClassifyContracts lists a supplier's contract versions with their validity
// POST /api/v1/procurement/contracts/classify
func (h *PurchaseOrderHandler) ClassifyContracts(c *gin.Context) {
	var req procapp.ListContractsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.ListContracts(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// LinkContract attaches a selectable contract to an approved order
// POST /api/v1/procurement/purchase-orders/link-contract
func (h *PurchaseOrderHandler) LinkContract(c *gin.Context) {
	var req procapp.LinkContractRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.LinkContract(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

// Finalize closes an order whose payments are being processed
// POST /api/v1/procurement/purchase-orders/finalize
func (h *PurchaseOrderHandler) Finalize(c *gin.Context) {
	var req procapp.FinalizePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.Finalize(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}
