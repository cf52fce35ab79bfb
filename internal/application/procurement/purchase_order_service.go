// Package procurement holds the purchase order use cases. Services are
// stateless over caller-held snapshots: each operation validates the snapshot
// it receives, applies the transition and returns the updated snapshot for the
// caller to persist.
package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/logger"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/telemetry"
)

const (
	serviceName        = "PurchaseOrderService"
	decisionLockTTL    = 10 * time.Second
	decisionLockPrefix = "purchase_order:decision:"
	decidedKeyPrefix   = "decided:"
)

// ErrDecisionInProgress is returned when another decision on the same order holds the lock
var ErrDecisionInProgress = shared.NewDomainError("CONFLICT", "Another approval decision on this purchase order is in progress")

// PurchaseOrderService handles purchase order lifecycle operations
type PurchaseOrderService struct {
	logger                   *zap.Logger
	clock                    shared.Clock
	eventPublisher           shared.EventPublisher
	businessMetrics          *telemetry.BusinessMetrics
	locker                   shared.Locker
	decisions                shared.KeyValueStore
	defaultPaymentWindowDays int
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(log *zap.Logger, clock shared.Clock) *PurchaseOrderService {
	if log == nil {
		log = zap.NewNop()
	}
	if clock == nil {
		clock = shared.NewSystemClock(time.UTC)
	}
	return &PurchaseOrderService{
		logger: log.Named("purchase_order_service"),
		clock:  clock,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *PurchaseOrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetLocker serializes approval decisions per order
func (s *PurchaseOrderService) SetLocker(locker shared.Locker) {
	s.locker = locker
}

// SetDecisionStore records decided steps so a replayed decision is refused
func (s *PurchaseOrderService) SetDecisionStore(store shared.KeyValueStore) {
	s.decisions = store
}

// SetDefaultPaymentWindowDays sets the advance notice used when a request omits it
func (s *PurchaseOrderService) SetDefaultPaymentWindowDays(days int) {
	s.defaultPaymentWindowDays = days
}

// Create creates a draft purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Create")
	defer span.End()

	now := s.clock.Now()
	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		orderNumber = generateOrderNumber(now)
	}
	windowDays := s.defaultPaymentWindowDays
	if req.PaymentWindowDays != nil {
		windowDays = *req.PaymentWindowDays
	}

	order, err := procurement.NewPurchaseOrder(procurement.NewPurchaseOrderParams{
		OrderNumber:            orderNumber,
		Description:            req.Description,
		RequesterID:            req.RequesterID,
		SupplierID:             req.SupplierID,
		SupplierScope:          req.SupplierScope,
		Type:                   req.Type,
		Subtype:                req.Subtype,
		TotalValue:             req.TotalValue,
		CurrencyCode:           req.CurrencyCode,
		PaymentTerms:           req.PaymentTerms,
		InstallmentCount:       req.InstallmentCount,
		PaymentWindow:          req.PaymentWindow,
		PaymentWindowDays:      windowDays,
		IsOutsidePaymentWindow: req.IsOutsidePaymentWindow,
	}, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	annotate(span, order)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderCreated(ctx, string(order.Type), string(order.SupplierScope),
			order.CurrencyCode.String(), order.TotalValue, order.CurrencyCode.MinorUnits())
	}

	logger.L(ctx).Info("purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("type", string(order.Type)),
		zap.String("total", order.TotalValue.StringFixed(order.CurrencyCode.MinorUnits())+" "+order.CurrencyCode.String()),
	)

	resp := &PurchaseOrderResponse{Order: order}
	resp.Events = s.publish(ctx, order)
	telemetry.SetOK(span)
	return resp, nil
}

// ValidateTransition checks a status/step pair and, when given, a type/subtype
// pair. The response is filled even when the pair is invalid.
func (s *PurchaseOrderService) ValidateTransition(ctx context.Context, req ValidateTransitionRequest) (*ValidateTransitionResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, serviceName, "ValidateTransition",
		telemetry.WithAttribute(telemetry.SpanAttrOrderStatus, string(req.Status)),
		telemetry.WithAttribute(telemetry.SpanAttrOrderStep, string(req.Step)),
	)
	defer span.End()

	resp := &ValidateTransitionResponse{
		AllowedSteps: procurement.AllowedSteps(req.Status),
	}
	if req.Type != "" || req.Subtype != "" {
		resp.AllowedSubtypes = procurement.AllowedSubtypes(req.Type)
	}

	if err := procurement.ValidateStatusStep(req.Status, req.Step); err != nil {
		telemetry.RecordError(span, err)
		return resp, err
	}
	if req.Type != "" || req.Subtype != "" {
		if err := procurement.ValidateTypeSubtype(req.Type, req.Subtype); err != nil {
			telemetry.RecordError(span, err)
			return resp, err
		}
	}
	resp.Valid = true
	return resp, nil
}

// Submit moves a draft to awaiting approval and opens one pending approval step
// per approver, in the given order. Allocation imbalance is reported, not rejected.
func (s *PurchaseOrderService) Submit(ctx context.Context, req SubmitPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Submit")
	defer span.End()

	order, err := snapshot(req.Order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	annotate(span, order)

	steps, err := procurement.NewApprovalSteps(order.ID, req.Approvers)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := order.Submit(s.clock.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := &PurchaseOrderResponse{Order: order, ApprovalSteps: steps}
	if len(req.Allocations) > 0 {
		balance := procurement.CheckAllocationBalance(req.Allocations, order.TotalValue)
		resp.AllocationBalance = &balance
		if !balance.Balanced {
			logger.L(ctx).Warn("purchase order allocations do not match its total",
				zap.String("order_number", order.OrderNumber),
				zap.String("allocated", balance.Allocated.String()),
				zap.String("declared", balance.Declared.String()),
			)
		}
	}

	logger.L(ctx).Info("purchase order submitted",
		zap.String("order_number", order.OrderNumber),
		zap.Int("approval_steps", len(steps)),
	)
	resp.Events = s.publish(ctx, order)
	telemetry.SetOK(span)
	return resp, nil
}

// DecideStep applies the actor's decision to the next pending approval step.
// A rejection rejects the order with the comment as reason; the last approval
// approves it.
func (s *PurchaseOrderService) DecideStep(ctx context.Context, req DecideStepRequest) (*DecisionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "DecideStep")
	defer span.End()

	order, err := snapshot(req.Order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	annotate(span, order)

	if order.Status != procurement.StatusAwaitingApproval {
		err := shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot decide approvals of a purchase order in %s status", order.Status))
		telemetry.RecordError(span, err)
		return nil, err
	}
	steps := append(procurement.ApprovalSteps(nil), req.ApprovalSteps...)
	for _, step := range steps {
		if step.PurchaseOrderID != order.ID {
			return nil, shared.NewDomainError("INVALID_INPUT", "Approval steps belong to another purchase order")
		}
	}
	if err := steps.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	release, err := s.lock(ctx, order.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer release()

	now := s.clock.Now()
	decided, err := steps.Decide(req.ActorID, req.Decision, req.Comment, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.markDecided(ctx, order.ID, decided); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddEvent(span, "approval_step.decided",
		"approval.step", decided.Order,
		"approval.decision", string(decided.Status),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordApprovalDecision(ctx, string(decided.Status))
	}

	complete := false
	switch {
	case steps.HasRejection():
		err = order.Reject(decided.Comments, now)
		complete = true
	case steps.AllApproved():
		err = order.Approve(now)
		complete = true
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("approval step decided",
		zap.String("order_number", order.OrderNumber),
		zap.Int("step", decided.Order),
		zap.String("decision", string(decided.Status)),
		zap.String("approver_id", decided.ApproverUserID.String()),
		zap.Bool("chain_complete", complete),
	)

	resp := &DecisionResponse{
		PurchaseOrderResponse: PurchaseOrderResponse{Order: order, ApprovalSteps: steps.Ordered()},
		DecidedStep:           decided,
		ChainComplete:         complete,
	}
	resp.Events = s.publish(ctx, order)
	telemetry.SetOK(span)
	return resp, nil
}

// ListContracts classifies the supplier's contracts against now. Documents of
// other suppliers are skipped when SupplierID is set.
func (s *PurchaseOrderService) ListContracts(ctx context.Context, req ListContractsRequest) (*ContractListResponse, error) {
	_, span := telemetry.StartServiceSpan(ctx, serviceName, "ListContracts",
		telemetry.WithAttribute("contract.documents", len(req.Documents)),
	)
	defer span.End()

	now := s.clock.Now()
	versions := procurement.ClassifyContractVersions(filterBySupplier(req.Documents, req.SupplierID), now)
	resp := &ContractListResponse{Versions: versions, AsOf: now}
	if current, ok := procurement.CurrentContract(versions); ok {
		resp.Current = &current
	}
	return resp, nil
}

// LinkContract links the selected contract to an approved order awaiting one.
// The contract must be within validity now.
func (s *PurchaseOrderService) LinkContract(ctx context.Context, req LinkContractRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "LinkContract")
	defer span.End()

	order, err := snapshot(req.Order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	annotate(span, order)

	now := s.clock.Now()
	versions := procurement.ClassifyContractVersions(filterBySupplier(req.Documents, order.SupplierID), now)
	contract, err := procurement.SelectContract(versions, req.DocumentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := order.LinkContract(contract, now); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("contract linked to purchase order",
		zap.String("order_number", order.OrderNumber),
		zap.String("document_id", contract.Document.ID.String()),
		zap.Int("contract_version", contract.Version),
	)

	resp := &PurchaseOrderResponse{Order: order}
	resp.Events = s.publish(ctx, order)
	telemetry.SetOK(span)
	return resp, nil
}

// Finalize closes an order whose payments are being processed
func (s *PurchaseOrderService) Finalize(ctx context.Context, req FinalizePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Finalize")
	defer span.End()

	order, err := snapshot(req.Order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	annotate(span, order)

	if err := order.Finalize(s.clock.Now()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("purchase order finalized", zap.String("order_number", order.OrderNumber))
	resp := &PurchaseOrderResponse{Order: order}
	resp.Events = s.publish(ctx, order)
	telemetry.SetOK(span)
	return resp, nil
}

// publish pulls the order's pending events and hands them to the publisher.
// The transition already happened, so a publishing failure is logged only.
func (s *PurchaseOrderService) publish(ctx context.Context, order *procurement.PurchaseOrder) []string {
	events := order.PullDomainEvents()
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType())
	}
	if s.eventPublisher == nil || len(events) == 0 {
		return types
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("failed to publish purchase order events",
			zap.String("order_number", order.OrderNumber),
			zap.Strings("events", types),
			zap.Error(err),
		)
	}
	return types
}

func (s *PurchaseOrderService) lock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx, decisionLockPrefix+orderID.String(), decisionLockTTL)
	if errors.Is(err, shared.ErrLockNotObtained) {
		return nil, ErrDecisionInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("lock purchase order %s: %w", orderID, err)
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release decision lock", zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}, nil
}

// markDecided claims the step in the decision store. It runs under the order
// lock, so a step already present was decided by an earlier request.
func (s *PurchaseOrderService) markDecided(ctx context.Context, orderID uuid.UUID, step procurement.POApprovalStep) error {
	if s.decisions == nil {
		return nil
	}
	key := decidedKey(orderID, step.Order)
	_, err := s.decisions.Get(ctx, key)
	switch {
	case err == nil:
		return shared.NewDomainError("CONFLICT", fmt.Sprintf("Approval step %d was already decided", step.Order))
	case !errors.Is(err, shared.ErrKeyNotFound):
		return fmt.Errorf("read decision of step %d: %w", step.Order, err)
	}
	if err := s.decisions.Set(ctx, key, string(step.Status), 0); err != nil {
		return fmt.Errorf("record decision of step %d: %w", step.Order, err)
	}
	return nil
}

func decidedKey(orderID uuid.UUID, stepOrder int) string {
	return fmt.Sprintf("%s%s:%d", decidedKeyPrefix, orderID, stepOrder)
}

// snapshot copies the caller's order and checks its invariants
func snapshot(in *procurement.PurchaseOrder) (*procurement.PurchaseOrder, error) {
	if in == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purchase order is required")
	}
	order := *in
	order.ClearDomainEvents()
	if order.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purchase order id is required")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &order, nil
}

func filterBySupplier(docs []procurement.SupplierDocument, supplierID uuid.UUID) []procurement.SupplierDocument {
	if supplierID == uuid.Nil {
		return docs
	}
	out := make([]procurement.SupplierDocument, 0, len(docs))
	for _, d := range docs {
		if d.SupplierID == uuid.Nil || d.SupplierID == supplierID {
			out = append(out, d)
		}
	}
	return out
}

func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PO-%s-%s", now.Format("20060102"), suffix)
}

func annotate(span trace.Span, order *procurement.PurchaseOrder) {
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
		telemetry.SpanAttrOrderStatus, string(order.Status),
		telemetry.SpanAttrOrderStep, string(order.Step),
	)
}
