package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared/valueobject"
)

// PaymentTerms describes how a purchase order is paid
type PaymentTerms string

const (
	PaymentTermsSingle       PaymentTerms = "single"
	PaymentTermsInstallments PaymentTerms = "installments"
	PaymentTermsRecurring    PaymentTerms = "recurring"
)

// IsValid checks if the terms are known PaymentTerms
func (p PaymentTerms) IsValid() bool {
	switch p {
	case PaymentTermsSingle, PaymentTermsInstallments, PaymentTermsRecurring:
		return true
	}
	return false
}

var _ shared.AggregateRoot = (*PurchaseOrder)(nil)

// PurchaseOrder is the aggregate root of the procurement context
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber            string               `json:"order_number"`
	Description            string               `json:"description,omitempty"`
	RequesterID            uuid.UUID            `json:"requester_id"`
	SupplierID             uuid.UUID            `json:"supplier_id"`
	SupplierScope          SupplierScope        `json:"supplier_scope"`
	Status                 Status               `json:"status"`
	Step                   Step                 `json:"step"`
	Type                   Type                 `json:"type"`
	Subtype                Subtype              `json:"subtype"`
	TotalValue             decimal.Decimal      `json:"total_value"`
	CurrencyCode           valueobject.Currency `json:"currency_code"`
	PaymentTerms           PaymentTerms         `json:"payment_terms"`
	InstallmentCount       *int                 `json:"installment_count,omitempty"`
	PaymentWindow          PaymentWindow        `json:"payment_window"`
	PaymentWindowDays      int                  `json:"payment_window_days"`
	IsOutsidePaymentWindow bool                 `json:"is_outside_payment_window"`
	ContractID             *uuid.UUID           `json:"contract_id,omitempty"`
	RejectionReason        string               `json:"rejection_reason,omitempty"`
	SubmittedAt            *time.Time           `json:"submitted_at,omitempty"`
	DecidedAt              *time.Time           `json:"decided_at,omitempty"`
	ClosedAt               *time.Time           `json:"closed_at,omitempty"`
}

// NewPurchaseOrderParams carries the attributes of a new purchase order
type NewPurchaseOrderParams struct {
	OrderNumber            string
	Description            string
	RequesterID            uuid.UUID
	SupplierID             uuid.UUID
	SupplierScope          SupplierScope
	Type                   Type
	Subtype                Subtype
	TotalValue             decimal.Decimal
	CurrencyCode           string
	PaymentTerms           PaymentTerms
	InstallmentCount       *int
	PaymentWindow          PaymentWindow
	PaymentWindowDays      int
	IsOutsidePaymentWindow bool
}

// NewPurchaseOrder creates a draft purchase order
func NewPurchaseOrder(p NewPurchaseOrderParams, at time.Time) (*PurchaseOrder, error) {
	orderNumber := strings.TrimSpace(p.OrderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	currency, err := valueobject.ParseCurrency(p.CurrencyCode)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}

	order := &PurchaseOrder{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(at),
		OrderNumber:            orderNumber,
		Description:            p.Description,
		RequesterID:            p.RequesterID,
		SupplierID:             p.SupplierID,
		SupplierScope:          p.SupplierScope,
		Status:                 StatusDraft,
		Step:                   StepDraft,
		Type:                   p.Type,
		Subtype:                p.Subtype,
		TotalValue:             p.TotalValue,
		CurrencyCode:           currency,
		PaymentTerms:           p.PaymentTerms,
		InstallmentCount:       p.InstallmentCount,
		PaymentWindow:          p.PaymentWindow,
		PaymentWindowDays:      p.PaymentWindowDays,
		IsOutsidePaymentWindow: p.IsOutsidePaymentWindow,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order, at))
	return order, nil
}

// Validate checks the aggregate invariants. It is used on creation and when a
// caller hands over a snapshot of an existing order.
func (o *PurchaseOrder) Validate() error {
	if err := ValidateStatusStep(o.Status, o.Step); err != nil {
		return err
	}
	if err := ValidateTypeSubtype(o.Type, o.Subtype); err != nil {
		return err
	}
	if o.SupplierID == uuid.Nil {
		return shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if !o.SupplierScope.IsValid() {
		return shared.NewDomainError("INVALID_SUPPLIER", fmt.Sprintf("Invalid supplier scope %q", o.SupplierScope))
	}
	if !o.TotalValue.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Total value must be positive")
	}
	if _, err := valueobject.ParseCurrency(string(o.CurrencyCode)); err != nil {
		return shared.NewDomainError("INVALID_CURRENCY", err.Error())
	}
	if !o.PaymentTerms.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_TERMS", fmt.Sprintf("Invalid payment terms %q", o.PaymentTerms))
	}
	if o.PaymentTerms == PaymentTermsInstallments && (o.InstallmentCount == nil || *o.InstallmentCount < 1) {
		return shared.NewDomainError("INVALID_INSTALLMENTS", "Installment payment terms require at least one installment")
	}
	if o.PaymentWindowDays < 0 {
		return shared.NewDomainError("INVALID_PAYMENT_WINDOW", "Payment window days cannot be negative")
	}
	if !o.IsOutsidePaymentWindow {
		if err := ValidatePaymentWindow(o.PaymentWindow, o.IsDomestic()); err != nil {
			return err
		}
	}
	return nil
}

// Submit sends a draft order to approval
func (o *PurchaseOrder) Submit(at time.Time) error {
	if o.Status != StatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot submit order in %s status", o.Status))
	}
	if err := o.moveTo(StatusAwaitingApproval, StepAwaitingApproval, at); err != nil {
		return err
	}
	o.SubmittedAt = &at
	o.AddDomainEvent(NewPurchaseOrderSubmittedEvent(o, at))
	return nil
}

// Approve records that the whole approval chain approved the order
func (o *PurchaseOrder) Approve(at time.Time) error {
	if o.Status != StatusAwaitingApproval {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot approve order in %s status", o.Status))
	}
	if err := o.moveTo(StatusApproved, StepAwaitingContract, at); err != nil {
		return err
	}
	o.DecidedAt = &at
	o.AddDomainEvent(NewPurchaseOrderApprovedEvent(o, at))
	return nil
}

// Reject records a rejection from any approver
func (o *PurchaseOrder) Reject(reason string, at time.Time) error {
	if o.Status != StatusAwaitingApproval {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot reject order in %s status", o.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Rejection reason is required")
	}
	if err := o.moveTo(StatusRejected, StepRejected, at); err != nil {
		return err
	}
	o.RejectionReason = reason
	o.DecidedAt = &at
	o.AddDomainEvent(NewPurchaseOrderRejectedEvent(o, at))
	return nil
}

// LinkContract attaches a selectable supplier contract and starts payment processing
func (o *PurchaseOrder) LinkContract(contract ContractVersion, at time.Time) error {
	if o.Status != StatusApproved || o.Step != StepAwaitingContract {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot link a contract to order in %s/%s", o.Status, o.Step))
	}
	if contract.Document.SupplierID != uuid.Nil && contract.Document.SupplierID != o.SupplierID {
		return shared.NewDomainError("INVALID_CONTRACT", "Contract belongs to a different supplier")
	}
	if !contract.Selectable() {
		return shared.NewDomainError("CONTRACT_NOT_SELECTABLE",
			fmt.Sprintf("Contract version %d is not within its validity period", contract.Version))
	}
	if err := o.moveTo(StatusApproved, StepProcessingPayments, at); err != nil {
		return err
	}
	contractID := contract.Document.ID
	o.ContractID = &contractID
	o.AddDomainEvent(NewPurchaseOrderContractLinkedEvent(o, contract.Version, at))
	return nil
}

// Finalize closes an order whose payments are being processed
func (o *PurchaseOrder) Finalize(at time.Time) error {
	if o.Status != StatusApproved || o.Step != StepProcessingPayments {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot finalize order in %s/%s", o.Status, o.Step))
	}
	if err := o.moveTo(StatusFinalized, StepClosed, at); err != nil {
		return err
	}
	o.ClosedAt = &at
	o.AddDomainEvent(NewPurchaseOrderFinalizedEvent(o, at))
	return nil
}

func (o *PurchaseOrder) moveTo(status Status, step Step, at time.Time) error {
	if err := ValidateStatusStep(status, step); err != nil {
		return err
	}
	o.Status = status
	o.Step = step
	o.Touch(at)
	o.IncrementVersion()
	return nil
}

// IsDomestic reports whether the order uses the domestic payment windows
func (o *PurchaseOrder) IsDomestic() bool {
	return o.SupplierScope == ScopeDomestic
}

// EffectiveInstallmentCount returns how many installments the order is paid in
func (o *PurchaseOrder) EffectiveInstallmentCount() int {
	if o.PaymentTerms == PaymentTermsSingle || o.InstallmentCount == nil || *o.InstallmentCount < 1 {
		return 1
	}
	return *o.InstallmentCount
}

// TotalMoney returns the total value in the order's currency
func (o *PurchaseOrder) TotalMoney() (valueobject.Money, error) {
	return valueobject.NewMoney(o.TotalValue, string(o.CurrencyCode))
}

// IsTerminal reports whether the order can no longer change
func (o *PurchaseOrder) IsTerminal() bool {
	return o.Status == StatusRejected || o.Status == StatusFinalized
}
