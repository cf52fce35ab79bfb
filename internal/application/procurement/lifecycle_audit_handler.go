package procurement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/logger"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/telemetry"
)

// LifecycleAuditHandler writes an audit log line and a transition metric for
// every purchase order lifecycle event
type LifecycleAuditHandler struct {
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// NewLifecycleAuditHandler creates a new handler for lifecycle events.
// metrics may be nil.
func NewLifecycleAuditHandler(log *zap.Logger, metrics *telemetry.BusinessMetrics) *LifecycleAuditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LifecycleAuditHandler{
		logger:  log.Named("purchase_order_audit"),
		metrics: metrics,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *LifecycleAuditHandler) EventTypes() []string {
	return procurement.LifecycleEventTypes
}

// Handle records a lifecycle event
func (h *LifecycleAuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	lifecycleEvent, ok := event.(procurement.LifecycleEvent)
	if !ok {
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s is not a purchase order lifecycle event", event.EventType())
	}
	change := lifecycleEvent.Lifecycle()

	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("order_id", change.OrderID.String()),
		zap.String("order_number", change.OrderNumber),
		zap.String("status", string(change.Status)),
		zap.String("step", string(change.Step)),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	if rejected, ok := event.(*procurement.PurchaseOrderRejectedEvent); ok {
		fields = append(fields, zap.String("reason", rejected.Reason))
	}
	logger.L(ctx).Info("purchase order lifecycle", fields...)

	if h.metrics != nil {
		h.metrics.RecordLifecycleTransition(ctx, event.EventType(), string(change.Status), string(change.Step))
	}
	return nil
}
