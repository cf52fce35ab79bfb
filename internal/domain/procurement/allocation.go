package procurement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// divergenceEpsilon is the largest difference between allocated and declared
// totals that is still treated as balanced.
var divergenceEpsilon = decimal.RequireFromString("0.01")

// POAllocation splits part of a purchase order's value to a payer company,
// cost center and GL account.
type POAllocation struct {
	ID                   uuid.UUID       `json:"id"`
	PurchaseOrderID      uuid.UUID       `json:"purchase_order_id"`
	PayerCompanyID       uuid.UUID       `json:"payer_company_id"`
	CostCenterID         uuid.UUID       `json:"cost_center_id"`
	GLAccountID          uuid.UUID       `json:"gl_account_id"`
	AllocationAmount     decimal.Decimal `json:"allocation_amount"`
	AllocationPercentage decimal.Decimal `json:"allocation_percentage"`
}

// NewPOAllocation creates an allocation; the percentage is derived from totalValue
func NewPOAllocation(purchaseOrderID, payerCompanyID, costCenterID, glAccountID uuid.UUID, amount, totalValue decimal.Decimal) (*POAllocation, error) {
	if payerCompanyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PAYER", "Payer company is required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation amount must be positive")
	}
	return &POAllocation{
		ID:                   uuid.New(),
		PurchaseOrderID:      purchaseOrderID,
		PayerCompanyID:       payerCompanyID,
		CostCenterID:         costCenterID,
		GLAccountID:          glAccountID,
		AllocationAmount:     amount,
		AllocationPercentage: PercentageOf(amount, totalValue),
	}, nil
}

// PercentageOf returns amount as a percentage of total, rounded to 2 places.
// A non-positive total yields zero.
func PercentageOf(amount, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
}

// AllocationBalance compares allocated amounts with the declared total
type AllocationBalance struct {
	Allocated  decimal.Decimal `json:"allocated"`
	Declared   decimal.Decimal `json:"declared"`
	Difference decimal.Decimal `json:"difference"`
	Balanced   bool            `json:"balanced"`
}

// CheckAllocationBalance sums allocation amounts and reports whether they match
// totalValue within 0.01. It never corrects anything.
func CheckAllocationBalance(allocations []POAllocation, totalValue decimal.Decimal) AllocationBalance {
	sum := decimal.Zero
	for _, a := range allocations {
		sum = sum.Add(a.AllocationAmount)
	}
	diff := totalValue.Sub(sum)
	return AllocationBalance{
		Allocated:  sum,
		Declared:   totalValue,
		Difference: diff,
		Balanced:   !diverges(sum, totalValue),
	}
}

func diverges(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(divergenceEpsilon)
}
