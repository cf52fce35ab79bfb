package procurement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared/valueobject"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/logger"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/infrastructure/telemetry"
)

const scheduleServiceName = "PaymentScheduleService"

// PaymentScheduleService resolves payment windows and builds installment schedules
type PaymentScheduleService struct {
	logger                   *zap.Logger
	clock                    shared.Clock
	location                 *time.Location
	businessMetrics          *telemetry.BusinessMetrics
	defaultPaymentWindowDays int
}

// NewPaymentScheduleService creates the service. Dates are resolved in loc;
// nil means UTC.
func NewPaymentScheduleService(log *zap.Logger, clock shared.Clock, loc *time.Location) *PaymentScheduleService {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = shared.NewSystemClock(loc)
	}
	return &PaymentScheduleService{
		logger:   log.Named("payment_schedule_service"),
		clock:    clock,
		location: loc,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *PaymentScheduleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetDefaultPaymentWindowDays sets the advance notice used when a request omits it
func (s *PaymentScheduleService) SetDefaultPaymentWindowDays(days int) {
	s.defaultPaymentWindowDays = days
}

// PaymentWindows lists the windows of a scope
func (s *PaymentScheduleService) PaymentWindows(scope procurement.SupplierScope) (*PaymentWindowsResponse, error) {
	if !scope.IsValid() {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Supplier scope must be domestic or international")
	}
	return &PaymentWindowsResponse{
		Scope:   scope,
		Windows: procurement.PaymentWindowsFor(scope == procurement.ScopeDomestic),
	}, nil
}

// NextPaymentDate resolves the first valid payment window after the open date
func (s *PaymentScheduleService) NextPaymentDate(ctx context.Context, req NextPaymentDateRequest) (*NextPaymentDateResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, scheduleServiceName, "NextPaymentDate",
		telemetry.WithAttribute(telemetry.SpanAttrPaymentWindow, req.PaymentWindow.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentScope, string(req.SupplierScope)),
	)
	defer span.End()

	if !req.SupplierScope.IsValid() {
		err := shared.NewDomainError("INVALID_SCOPE", "Supplier scope must be domestic or international")
		telemetry.RecordError(span, err)
		return nil, err
	}
	minDays := s.defaultPaymentWindowDays
	if req.MinDaysAdvance != nil {
		minDays = *req.MinDaysAdvance
	}
	if minDays < 0 {
		err := shared.NewDomainError("INVALID_PAYMENT_WINDOW", "Minimum days in advance cannot be negative")
		telemetry.RecordError(span, err)
		return nil, err
	}
	openDate := s.clock.Now()
	if req.OpenDate != nil {
		openDate = *req.OpenDate
	}

	result := s.resolve(ctx, openDate, req.PaymentWindow, minDays, req.IsOutsidePaymentWindow, req.SupplierScope)
	return &NextPaymentDateResponse{
		PaymentWindowResult: result,
		OpenDate:            openDate.In(s.location),
		DaysFromOpen:        procurement.DaysBetween(openDate.In(s.location), result.Date),
		Snapped:             result.Day != req.PaymentWindow,
	}, nil
}

// BuildSchedule resolves the first due date from the order's approval date
// (now when it has none) and splits the allocations across the order's
// installments, each due on the same window in consecutive months.
// Divergence between the schedule and the order total is logged and counted,
// never corrected.
func (s *PaymentScheduleService) BuildSchedule(ctx context.Context, req BuildScheduleRequest) (*ScheduleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, scheduleServiceName, "BuildSchedule")
	defer span.End()

	order, err := snapshot(req.Order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	annotate(span, order)

	total, err := order.TotalMoney()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	openDate := s.clock.Now()
	if order.DecidedAt != nil && order.Status != procurement.StatusRejected {
		openDate = *order.DecidedAt
	}
	first := s.resolve(ctx, openDate, order.PaymentWindow, order.PaymentWindowDays,
		order.IsOutsidePaymentWindow, order.SupplierScope)

	installments := order.EffectiveInstallmentCount()
	rec := procurement.ReconcileInstallments(req.Allocations, total, installments, procurement.WindowedMonthly(first))
	resp := &ScheduleResponse{
		FirstPayment:      &first,
		Reconciliation:    rec,
		AllocationBalance: procurement.CheckAllocationBalance(req.Allocations, order.TotalValue),
		Divergence:        rec.Divergence(order.TotalValue),
	}

	s.report(ctx, order.OrderNumber, total, installments, rec)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInstallmentCount, installments,
		telemetry.SpanAttrHasDivergence, rec.HasDivergence,
	)
	telemetry.SetOK(span)
	return resp, nil
}

// Reconcile splits allocations across installments without an order snapshot
func (s *PaymentScheduleService) Reconcile(ctx context.Context, req ReconcileRequest) (*ScheduleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, scheduleServiceName, "Reconcile",
		telemetry.WithAttribute(telemetry.SpanAttrInstallmentCount, req.InstallmentCount),
	)
	defer span.End()

	total, err := valueobject.NewMoney(req.TotalValue, req.CurrencyCode)
	if err != nil {
		err = shared.NewDomainError("INVALID_CURRENCY", err.Error())
		telemetry.RecordError(span, err)
		return nil, err
	}

	var rule procurement.DueDateRule
	if req.FirstDueDate != nil {
		first := *req.FirstDueDate
		rule = procurement.WindowedMonthly(procurement.PaymentWindowResult{
			Day:  procurement.PaymentWindow(first.Day()),
			Date: first,
		})
	}
	rec := procurement.ReconcileInstallments(req.Allocations, total, req.InstallmentCount, rule)
	s.report(ctx, "", total, max(req.InstallmentCount, 1), rec)

	return &ScheduleResponse{
		Reconciliation:    rec,
		AllocationBalance: procurement.CheckAllocationBalance(req.Allocations, req.TotalValue),
		Divergence:        rec.Divergence(req.TotalValue),
	}, nil
}

func (s *PaymentScheduleService) resolve(ctx context.Context, openDate time.Time, window procurement.PaymentWindow,
	minDays int, outside bool, scope procurement.SupplierScope) procurement.PaymentWindowResult {
	result := procurement.NextValidPaymentDate(openDate.In(s.location), window, minDays, outside,
		scope == procurement.ScopeDomestic)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordPaymentWindowResolved(ctx, string(scope), result.Day != window)
	}
	logger.L(ctx).Debug("payment window resolved",
		zap.String("requested", window.String()),
		zap.String("resolved", result.Day.String()),
		zap.Time("date", result.Date),
		zap.Int("min_days_advance", minDays),
	)
	return result
}

func (s *PaymentScheduleService) report(ctx context.Context, orderNumber string, total valueobject.Money,
	installments int, rec procurement.Reconciliation) {
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSchedule(ctx, total.Currency().String(), installments, rec.HasDivergence)
	}
	if !rec.HasDivergence {
		return
	}
	logger.L(ctx).Warn("installment schedule diverges from purchase order total",
		zap.String("order_number", orderNumber),
		zap.String("grand_total", rec.GrandTotal.String()),
		zap.String("total_value", total.Amount().String()),
		zap.String("difference", rec.Divergence(total.Amount()).String()),
	)
}
