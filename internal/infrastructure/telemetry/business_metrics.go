package telemetry

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks purchase order lifecycle and payment scheduling activity.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	orderCreatedTotal      *Counter
	orderValueTotal        *Counter
	lifecycleTransitions   *Counter
	approvalDecisions      *Counter
	paymentWindowResolved  *Counter
	installmentDivergences *Counter
	scheduleInstallments   *Histogram
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.orderCreatedTotal, "po_created_total", "Total number of purchase orders created", "{orders}"},
		{&bm.orderValueTotal, "po_value_total", "Total purchase order value in minor currency units", "{minor_units}"},
		{&bm.lifecycleTransitions, "po_lifecycle_transitions_total", "Purchase order status/step transitions", "{transitions}"},
		{&bm.approvalDecisions, "po_approval_decisions_total", "Approval step decisions", "{decisions}"},
		{&bm.paymentWindowResolved, "po_payment_window_resolved_total", "Resolved payment window dates", "{resolutions}"},
		{&bm.installmentDivergences, "po_installment_divergence_total", "Installment schedules whose totals diverge from the order value", "{schedules}"},
	}
	for _, c := range counters {
		*c.target, err = NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
	}

	bm.scheduleInstallments, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "po_schedule_installments",
		Description: "Installments per generated payment schedule",
		Unit:        "{installments}",
		Boundaries:  InstallmentCountBuckets,
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated counts a new purchase order and adds its value in minor units.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, orderType, scope, currency string, value decimal.Decimal, minorUnits int32) {
	bm.orderCreatedTotal.Inc(ctx,
		AttrOrderType.String(orderType),
		AttrSupplierScope.String(scope),
	)
	minor := value.Shift(minorUnits).IntPart()
	bm.orderValueTotal.Add(ctx, minor, AttrCurrency.String(currency))
}

// RecordLifecycleTransition counts a lifecycle event by its resulting status and step.
func (bm *BusinessMetrics) RecordLifecycleTransition(ctx context.Context, eventType, status, step string) {
	bm.lifecycleTransitions.Inc(ctx,
		AttrEventType.String(eventType),
		AttrStatus.String(status),
		AttrStep.String(step),
	)
}

// RecordApprovalDecision counts an approval step decision.
func (bm *BusinessMetrics) RecordApprovalDecision(ctx context.Context, decision string) {
	bm.approvalDecisions.Inc(ctx, AttrDecision.String(decision))
}

// RecordPaymentWindowResolved counts a payment window resolution; snapped is
// true when the result differs from the requested window.
func (bm *BusinessMetrics) RecordPaymentWindowResolved(ctx context.Context, scope string, snapped bool) {
	bm.paymentWindowResolved.Inc(ctx,
		AttrSupplierScope.String(scope),
		AttrSnapped.String(strconv.FormatBool(snapped)),
	)
}

// RecordSchedule records the size of a generated schedule and whether it diverged.
func (bm *BusinessMetrics) RecordSchedule(ctx context.Context, currency string, installments int, diverged bool) {
	bm.scheduleInstallments.Record(ctx, float64(installments), AttrCurrency.String(currency))
	if diverged {
		bm.installmentDivergences.Inc(ctx, AttrCurrency.String(currency))
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
