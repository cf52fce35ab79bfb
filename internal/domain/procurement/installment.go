package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared/valueobject"
)

// InstallmentStatus tracks an installment from provisioning to payment
type InstallmentStatus string

const (
	InstallmentProvisioned InstallmentStatus = "provisioned"
	InstallmentScheduled   InstallmentStatus = "scheduled"
	InstallmentPaid        InstallmentStatus = "paid"
)

// IsValid checks if the status is a known InstallmentStatus
func (s InstallmentStatus) IsValid() bool {
	switch s {
	case InstallmentProvisioned, InstallmentScheduled, InstallmentPaid:
		return true
	}
	return false
}

// CanTransitionTo checks if the installment can move to the target status
func (s InstallmentStatus) CanTransitionTo(target InstallmentStatus) bool {
	switch s {
	case InstallmentProvisioned:
		return target == InstallmentScheduled
	case InstallmentScheduled:
		return target == InstallmentPaid
	}
	return false
}

// InstallmentAllocation is one payer's share of one installment. It is computed,
// never stored by this package.
type InstallmentAllocation struct {
	InstallmentNumber int               `json:"installment_number"`
	DueDate           time.Time         `json:"due_date"`
	PayerCompanyID    uuid.UUID         `json:"payer_company_id"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            InstallmentStatus `json:"status"`
}

// Schedule moves a provisioned installment to scheduled
func (i *InstallmentAllocation) Schedule() error {
	return i.transitionTo(InstallmentScheduled)
}

// MarkPaid moves a scheduled installment to paid
func (i *InstallmentAllocation) MarkPaid() error {
	return i.transitionTo(InstallmentPaid)
}

func (i *InstallmentAllocation) transitionTo(target InstallmentStatus) error {
	if !i.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot move installment %d from %s to %s", i.InstallmentNumber, i.Status, target))
	}
	i.Status = target
	return nil
}

// DueDateRule returns the due date of the given 1-based installment
type DueDateRule func(installmentNumber int) time.Time

// MonthlyFrom dues installment i exactly i months after ref. Days past the
// end of a shorter month clamp to its last day.
func MonthlyFrom(ref time.Time) DueDateRule {
	return func(n int) time.Time {
		return addMonths(ref, n)
	}
}

// WindowedMonthly dues the first installment on first.Date and each later one
// on the same window in the following months.
func WindowedMonthly(first PaymentWindowResult) DueDateRule {
	return func(n int) time.Time {
		if n <= 1 {
			return first.Date
		}
		target := addMonths(time.Date(first.Date.Year(), first.Date.Month(), 1, 0, 0, 0, 0, first.Date.Location()), n-1)
		return first.Day.DateIn(target.Year(), target.Month(), target.Location())
	}
}

func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	h, min, s := t.Clock()
	return time.Date(first.Year(), first.Month(), d, h, min, s, t.Nanosecond(), t.Location())
}

// Reconciliation is the per-payer installment breakdown of a purchase order
type Reconciliation struct {
	// Payers lists payer companies in first-seen allocation order
	Payers              []uuid.UUID                           `json:"payers"`
	InstallmentsByPayer map[uuid.UUID][]InstallmentAllocation `json:"installments_by_payer"`
	TotalsByPayer       map[uuid.UUID]decimal.Decimal         `json:"totals_by_payer"`
	GrandTotal          decimal.Decimal                       `json:"grand_total"`
	HasDivergence       bool                                  `json:"has_divergence"`
}

// Divergence returns the signed difference between the grand total and the declared value
func (r Reconciliation) Divergence(totalValue decimal.Decimal) decimal.Decimal {
	return r.GrandTotal.Sub(totalValue)
}

// ReconcileInstallments groups allocations by payer, splits each payer's total
// evenly across installmentCount installments and flags divergence between the
// resulting grand total and totalValue.
//
// Each installment amount is the plain quotient (decimal.DivisionPrecision
// places); it is not rounded to minor units and no remainder is
// redistributed, so any drift surfaces through HasDivergence instead of being
// absorbed. Round only when presenting amounts. installmentCount below 1 is treated as 1. A nil rule
// defaults to MonthlyFrom(time.Time{}). The function never fails.
func ReconcileInstallments(allocations []POAllocation, totalValue valueobject.Money, installmentCount int, rule DueDateRule) Reconciliation {
	if installmentCount < 1 {
		installmentCount = 1
	}
	if rule == nil {
		rule = MonthlyFrom(time.Time{})
	}
	count := decimal.NewFromInt(int64(installmentCount))

	r := Reconciliation{
		Payers:              make([]uuid.UUID, 0),
		InstallmentsByPayer: make(map[uuid.UUID][]InstallmentAllocation),
		TotalsByPayer:       make(map[uuid.UUID]decimal.Decimal),
		GrandTotal:          decimal.Zero,
	}

	for _, a := range allocations {
		current, seen := r.TotalsByPayer[a.PayerCompanyID]
		if !seen {
			r.Payers = append(r.Payers, a.PayerCompanyID)
			current = decimal.Zero
		}
		r.TotalsByPayer[a.PayerCompanyID] = current.Add(a.AllocationAmount)
	}

	for _, payer := range r.Payers {
		perInstallment := r.TotalsByPayer[payer].Div(count)
		installments := make([]InstallmentAllocation, 0, installmentCount)
		for n := 1; n <= installmentCount; n++ {
			installments = append(installments, InstallmentAllocation{
				InstallmentNumber: n,
				DueDate:           rule(n),
				PayerCompanyID:    payer,
				Amount:            perInstallment,
				Status:            InstallmentProvisioned,
			})
		}
		r.InstallmentsByPayer[payer] = installments
		r.GrandTotal = r.GrandTotal.Add(perInstallment.Mul(count))
	}

	r.HasDivergence = diverges(r.GrandTotal, totalValue.Amount())
	return r
}
