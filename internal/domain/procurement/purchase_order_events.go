package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated        = "PurchaseOrderCreated"
	EventTypePurchaseOrderSubmitted      = "PurchaseOrderSubmitted"
	EventTypePurchaseOrderApproved       = "PurchaseOrderApproved"
	EventTypePurchaseOrderRejected       = "PurchaseOrderRejected"
	EventTypePurchaseOrderContractLinked = "PurchaseOrderContractLinked"
	EventTypePurchaseOrderFinalized      = "PurchaseOrderFinalized"
)

// LifecycleEventTypes lists every purchase order lifecycle event
var LifecycleEventTypes = []string{
	EventTypePurchaseOrderCreated,
	EventTypePurchaseOrderSubmitted,
	EventTypePurchaseOrderApproved,
	EventTypePurchaseOrderRejected,
	EventTypePurchaseOrderContractLinked,
	EventTypePurchaseOrderFinalized,
}

// LifecycleChange is the status/step snapshot every lifecycle event carries
type LifecycleChange struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      Status    `json:"status"`
	Step        Step      `json:"step"`
}

// Lifecycle returns the status/step snapshot of the event
func (c LifecycleChange) Lifecycle() LifecycleChange {
	return c
}

func lifecycleOf(order *PurchaseOrder) LifecycleChange {
	return LifecycleChange{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Step:        order.Step,
	}
}

// LifecycleEvent is implemented by every purchase order lifecycle event
type LifecycleEvent interface {
	shared.DomainEvent
	Lifecycle() LifecycleChange
}

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	LifecycleChange
	SupplierID   uuid.UUID       `json:"supplier_id"`
	TotalValue   decimal.Decimal `json:"total_value"`
	CurrencyCode string          `json:"currency_code"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder, at time.Time) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID, at),
		LifecycleChange: lifecycleOf(order),
		SupplierID:      order.SupplierID,
		TotalValue:      order.TotalValue,
		CurrencyCode:    order.CurrencyCode.String(),
	}
}

// PurchaseOrderSubmittedEvent is raised when a draft is sent to approval
type PurchaseOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	LifecycleChange
	RequesterID uuid.UUID `json:"requester_id"`
}

// NewPurchaseOrderSubmittedEvent creates a new PurchaseOrderSubmittedEvent
func NewPurchaseOrderSubmittedEvent(order *PurchaseOrder, at time.Time) *PurchaseOrderSubmittedEvent {
	return &PurchaseOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderSubmitted, AggregateTypePurchaseOrder, order.ID, at),
		LifecycleChange: lifecycleOf(order),
		RequesterID:     order.RequesterID,
	}
}

// PurchaseOrderApprovedEvent is raised when every approval step approved
type PurchaseOrderApprovedEvent struct {
	shared.BaseDomainEvent
	LifecycleChange
}

// NewPurchaseOrderApprovedEvent creates a new PurchaseOrderApprovedEvent
func NewPurchaseOrderApprovedEvent(order *PurchaseOrder, at time.Time) *PurchaseOrderApprovedEvent {
	return &PurchaseOrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderApproved, AggregateTypePurchaseOrder, order.ID, at),
		LifecycleChange: lifecycleOf(order),
	}
}

// PurchaseOrderRejectedEvent is raised when an approver rejects the order
type PurchaseOrderRejectedEvent struct {
	shared.BaseDomainEvent
	LifecycleChange
	Reason string `json:"reason"`
}

// NewPurchaseOrderRejectedEvent creates a new PurchaseOrderRejectedEvent
func NewPurchaseOrderRejectedEvent(order *PurchaseOrder, at time.Time) *PurchaseOrderRejectedEvent {
	return &PurchaseOrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderRejected, AggregateTypePurchaseOrder, order.ID, at),
		LifecycleChange: lifecycleOf(order),
		Reason:          order.RejectionReason,
	}
}

// PurchaseOrderContractLinkedEvent is raised when a contract is attached
type PurchaseOrderContractLinkedEvent struct {
	shared.BaseDomainEvent
	LifecycleChange
	ContractID      uuid.UUID `json:"contract_id"`
	ContractVersion int       `json:"contract_version"`
}

// NewPurchaseOrderContractLinkedEvent creates a new PurchaseOrderContractLinkedEvent
func NewPurchaseOrderContractLinkedEvent(order *PurchaseOrder, version int, at time.Time) *PurchaseOrderContractLinkedEvent {
	e := &PurchaseOrderContractLinkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderContractLinked, AggregateTypePurchaseOrder, order.ID, at),
		LifecycleChange: lifecycleOf(order),
		ContractVersion: version,
	}
	if order.ContractID != nil {
		e.ContractID = *order.ContractID
	}
	return e
}

// PurchaseOrderFinalizedEvent is raised when the order is closed
type PurchaseOrderFinalizedEvent struct {
	shared.BaseDomainEvent
	LifecycleChange
}

// NewPurchaseOrderFinalizedEvent creates a new PurchaseOrderFinalizedEvent
func NewPurchaseOrderFinalizedEvent(order *PurchaseOrder, at time.Time) *PurchaseOrderFinalizedEvent {
	return &PurchaseOrderFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderFinalized, AggregateTypePurchaseOrder, order.ID, at),
		LifecycleChange: lifecycleOf(order),
	}
}
