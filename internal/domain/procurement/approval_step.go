package procurement

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// ApprovalStatus is the decision state of a single approval step
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsDecision reports whether the status is a final decision
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// POApprovalStep is one approver's slot in a purchase order's approval chain
type POApprovalStep struct {
	ID              uuid.UUID      `json:"id"`
	PurchaseOrderID uuid.UUID      `json:"purchase_order_id"`
	Order           int            `json:"order"`
	Status          ApprovalStatus `json:"status"`
	ApproverUserID  uuid.UUID      `json:"approver_user_id"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	Comments        string         `json:"comments,omitempty"`
}

// IsPending reports whether the step still awaits a decision
func (s POApprovalStep) IsPending() bool {
	return s.Status == ApprovalPending
}

// ApprovalSteps is the approval chain of a purchase order
type ApprovalSteps []POApprovalStep

// NewApprovalSteps creates one pending step per approver, ordered 1..n
func NewApprovalSteps(purchaseOrderID uuid.UUID, approvers []uuid.UUID) (ApprovalSteps, error) {
	if len(approvers) == 0 {
		return nil, shared.NewDomainError("INVALID_APPROVERS", "At least one approver is required")
	}
	steps := make(ApprovalSteps, 0, len(approvers))
	for i, approver := range approvers {
		if approver == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_APPROVERS", fmt.Sprintf("Approver %d is empty", i+1))
		}
		steps = append(steps, POApprovalStep{
			ID:              uuid.New(),
			PurchaseOrderID: purchaseOrderID,
			Order:           i + 1,
			Status:          ApprovalPending,
			ApproverUserID:  approver,
		})
	}
	return steps, nil
}

// Validate checks that orders are unique
func (s ApprovalSteps) Validate() error {
	seen := make(map[int]bool, len(s))
	for _, step := range s {
		if seen[step.Order] {
			return shared.NewDomainError("INVALID_APPROVERS", fmt.Sprintf("Duplicate approval order %d", step.Order))
		}
		seen[step.Order] = true
	}
	return nil
}

// Ordered returns a copy sorted by Order
func (s ApprovalSteps) Ordered() ApprovalSteps {
	out := append(ApprovalSteps(nil), s...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// HasRejection reports whether any step was rejected; the purchase order must then be rejected
func (s ApprovalSteps) HasRejection() bool {
	for _, step := range s {
		if step.Status == ApprovalRejected {
			return true
		}
	}
	return false
}

// AllApproved reports whether every step was approved
func (s ApprovalSteps) AllApproved() bool {
	if len(s) == 0 {
		return false
	}
	for _, step := range s {
		if step.Status != ApprovalApproved {
			return false
		}
	}
	return true
}

// NextPending returns the pending step with the lowest order
func (s ApprovalSteps) NextPending() (POApprovalStep, bool) {
	idx := s.nextPendingIndex()
	if idx < 0 {
		return POApprovalStep{}, false
	}
	return s[idx], true
}

func (s ApprovalSteps) nextPendingIndex() int {
	idx := -1
	for i, step := range s {
		if step.IsPending() && (idx < 0 || step.Order < s[idx].Order) {
			idx = i
		}
	}
	return idx
}

// Decide records actor's decision on the next pending step. Steps are decided
// in order, only by their approver, and once. A rejection needs a comment and
// closes the chain.
func (s ApprovalSteps) Decide(actor uuid.UUID, decision ApprovalStatus, comment string, at time.Time) (POApprovalStep, error) {
	if !decision.IsDecision() {
		return POApprovalStep{}, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid approval decision %q", decision))
	}
	if s.HasRejection() {
		return POApprovalStep{}, shared.NewDomainError(shared.CodeInvalidState, "Approval chain was already rejected")
	}
	idx := s.nextPendingIndex()
	if idx < 0 {
		return POApprovalStep{}, shared.NewDomainError(shared.CodeInvalidState, "No approval step is pending")
	}
	if s[idx].ApproverUserID != actor {
		return POApprovalStep{}, shared.NewDomainError("FORBIDDEN",
			fmt.Sprintf("Approval step %d must be decided by its assigned approver", s[idx].Order))
	}
	comment = strings.TrimSpace(comment)
	if decision == ApprovalRejected && comment == "" {
		return POApprovalStep{}, shared.NewDomainError("INVALID_INPUT", "A rejection requires a comment")
	}

	decidedAt := at
	s[idx].Status = decision
	s[idx].DecidedAt = &decidedAt
	s[idx].Comments = comment
	return s[idx], nil
}
