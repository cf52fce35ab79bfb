package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
)

// ==================== Purchase Order DTOs ====================

// CreatePurchaseOrderRequest represents a request to create a draft purchase order.
// An empty OrderNumber is generated; a nil PaymentWindowDays takes the configured default.
type CreatePurchaseOrderRequest struct {
	OrderNumber            string                    `json:"order_number" binding:"max=50"`
	Description            string                    `json:"description" binding:"max=500"`
	RequesterID            uuid.UUID                 `json:"requester_id" binding:"required"`
	SupplierID             uuid.UUID                 `json:"supplier_id" binding:"required"`
	SupplierScope          procurement.SupplierScope `json:"supplier_scope" binding:"required,supplier_scope"`
	Type                   procurement.Type          `json:"type" binding:"required,po_type"`
	Subtype                procurement.Subtype       `json:"subtype" binding:"required"`
	TotalValue             decimal.Decimal           `json:"total_value"`
	CurrencyCode           string                    `json:"currency_code" binding:"required,len=3"`
	PaymentTerms           procurement.PaymentTerms  `json:"payment_terms" binding:"required,oneof=single installments recurring"`
	InstallmentCount       *int                      `json:"installment_count" binding:"omitempty,min=1,max=120"`
	PaymentWindow          procurement.PaymentWindow `json:"payment_window" binding:"payment_window"`
	PaymentWindowDays      *int                      `json:"payment_window_days" binding:"omitempty,min=0"`
	IsOutsidePaymentWindow bool                      `json:"is_outside_payment_window"`
}

// ValidateTransitionRequest asks whether a status/step pair (and optionally a
// type/subtype pair) is a legal combination
type ValidateTransitionRequest struct {
	Status  procurement.Status  `json:"status" binding:"required"`
	Step    procurement.Step    `json:"step" binding:"required"`
	Type    procurement.Type    `json:"type"`
	Subtype procurement.Subtype `json:"subtype"`
}

// ValidateTransitionResponse lists what the pair's status and type allow
type ValidateTransitionResponse struct {
	Valid           bool                  `json:"valid"`
	AllowedSteps    []procurement.Step    `json:"allowed_steps"`
	AllowedSubtypes []procurement.Subtype `json:"allowed_subtypes,omitempty"`
}

// SubmitPurchaseOrderRequest submits a draft and opens its approval chain
type SubmitPurchaseOrderRequest struct {
	Order       *procurement.PurchaseOrder `json:"order" binding:"required"`
	Approvers   []uuid.UUID                `json:"approvers" binding:"required,min=1,dive,required"`
	Allocations []procurement.POAllocation `json:"allocations"`
}

// DecideStepRequest records an approver's decision on the next pending step
type DecideStepRequest struct {
	Order         *procurement.PurchaseOrder `json:"order" binding:"required"`
	ApprovalSteps procurement.ApprovalSteps  `json:"approval_steps" binding:"required,min=1"`
	ActorID       uuid.UUID                  `json:"actor_id"`
	Decision      procurement.ApprovalStatus `json:"decision" binding:"required,po_decision"`
	Comment       string                     `json:"comment" binding:"max=1000"`
}

// ListContractsRequest classifies a supplier's uploaded contracts.
// Documents are expected most recent first.
type ListContractsRequest struct {
	SupplierID uuid.UUID                      `json:"supplier_id"`
	Documents  []procurement.SupplierDocument `json:"documents"`
}

// LinkContractRequest links one of the supplier's contracts to an approved order
type LinkContractRequest struct {
	Order      *procurement.PurchaseOrder     `json:"order" binding:"required"`
	Documents  []procurement.SupplierDocument `json:"documents" binding:"required,min=1"`
	DocumentID uuid.UUID                      `json:"document_id" binding:"required"`
}

// FinalizePurchaseOrderRequest closes an order whose payments are processed
type FinalizePurchaseOrderRequest struct {
	Order *procurement.PurchaseOrder `json:"order" binding:"required"`
}

// PurchaseOrderResponse carries the updated order snapshot back to the caller,
// which owns persistence
type PurchaseOrderResponse struct {
	Order             *procurement.PurchaseOrder     `json:"order"`
	ApprovalSteps     procurement.ApprovalSteps      `json:"approval_steps,omitempty"`
	AllocationBalance *procurement.AllocationBalance `json:"allocation_balance,omitempty"`
	Events            []string                       `json:"events"`
}

// DecisionResponse is the outcome of DecideStep
type DecisionResponse struct {
	PurchaseOrderResponse
	DecidedStep procurement.POApprovalStep `json:"decided_step"`
	// ChainComplete is true once the order was approved or rejected
	ChainComplete bool `json:"chain_complete"`
}

// ContractListResponse is the classified contract history of a supplier
type ContractListResponse struct {
	Versions []procurement.ContractVersion `json:"versions"`
	Current  *procurement.ContractVersion  `json:"current,omitempty"`
	AsOf     time.Time                     `json:"as_of"`
}

// ==================== Payment Schedule DTOs ====================

// NextPaymentDateRequest resolves the next valid payment window.
// A nil OpenDate means now; a nil MinDaysAdvance takes the configured default.
type NextPaymentDateRequest struct {
	OpenDate               *time.Time                `json:"open_date"`
	PaymentWindow          procurement.PaymentWindow `json:"payment_window" binding:"payment_window"`
	MinDaysAdvance         *int                      `json:"min_days_advance" binding:"omitempty,min=0"`
	IsOutsidePaymentWindow bool                      `json:"is_outside_payment_window"`
	SupplierScope          procurement.SupplierScope `json:"supplier_scope" binding:"required,supplier_scope"`
}

// NextPaymentDateResponse is the resolved window
type NextPaymentDateResponse struct {
	procurement.PaymentWindowResult
	OpenDate     time.Time `json:"open_date"`
	DaysFromOpen int       `json:"days_from_open"`
	// Snapped is true when the resolved window differs from the requested one
	Snapped bool `json:"snapped"`
}

// PaymentWindowsResponse lists the windows of a supplier scope
type PaymentWindowsResponse struct {
	Scope   procurement.SupplierScope   `json:"scope"`
	Windows []procurement.PaymentWindow `json:"windows"`
}

// BuildScheduleRequest builds the installment schedule of an order
type BuildScheduleRequest struct {
	Order       *procurement.PurchaseOrder `json:"order" binding:"required"`
	Allocations []procurement.POAllocation `json:"allocations"`
}

// ReconcileRequest reconciles allocations without an order snapshot.
// Later installments fall on FirstDueDate's day of month; a nil FirstDueDate
// makes installment n due n months after the zero date.
type ReconcileRequest struct {
	Allocations      []procurement.POAllocation `json:"allocations"`
	TotalValue       decimal.Decimal            `json:"total_value"`
	CurrencyCode     string                     `json:"currency_code" binding:"required,len=3"`
	InstallmentCount int                        `json:"installment_count"`
	FirstDueDate     *time.Time                 `json:"first_due_date"`
}

// ScheduleResponse is a reconciled installment schedule
type ScheduleResponse struct {
	FirstPayment      *procurement.PaymentWindowResult `json:"first_payment,omitempty"`
	Reconciliation    procurement.Reconciliation       `json:"reconciliation"`
	AllocationBalance procurement.AllocationBalance    `json:"allocation_balance"`
	Divergence        decimal.Decimal                  `json:"divergence"`
}
