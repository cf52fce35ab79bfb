package procurement

import "github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"

// Status is the coarse lifecycle state of a purchase order
type Status string

const (
	StatusDraft            Status = "draft"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusFinalized        Status = "finalized"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{StatusDraft, StatusAwaitingApproval, StatusApproved, StatusRejected, StatusFinalized}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	_, ok := stepsByStatus[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Step is the fine-grained position of a purchase order inside its status
type Step string

const (
	StepDraft              Step = "draft"
	StepAwaitingApproval   Step = "awaiting_approval"
	StepAwaitingContract   Step = "awaiting_contract"
	StepProcessingPayments Step = "processing_payments"
	StepRejected           Step = "rejected"
	StepClosed             Step = "closed"
)

// Steps lists every step
var Steps = []Step{StepDraft, StepAwaitingApproval, StepAwaitingContract, StepProcessingPayments, StepRejected, StepClosed}

// IsValid checks if the step is a known Step
func (s Step) IsValid() bool {
	for _, step := range Steps {
		if s == step {
			return true
		}
	}
	return false
}

// String returns the string representation of Step
func (s Step) String() string {
	return string(s)
}

// Type classifies what a purchase order buys
type Type string

const (
	TypeProductsServices Type = "products_services"
	TypeReimbursement    Type = "reimbursement"
)

// IsValid checks if the type is a known Type
func (t Type) IsValid() bool {
	_, ok := subtypesByType[t]
	return ok
}

// Subtype refines a Type
type Subtype string

const (
	SubtypeProduct  Subtype = "product"
	SubtypeService  Subtype = "service"
	SubtypeStandard Subtype = "standard"
)

// stepsByStatus is the closed status -> steps mapping
var stepsByStatus = map[Status][]Step{
	StatusDraft:            {StepDraft},
	StatusAwaitingApproval: {StepAwaitingApproval},
	StatusApproved:         {StepAwaitingContract, StepProcessingPayments},
	StatusRejected:         {StepRejected},
	StatusFinalized:        {StepClosed},
}

var subtypesByType = map[Type][]Subtype{
	TypeProductsServices: {SubtypeProduct, SubtypeService},
	TypeReimbursement:    {SubtypeStandard},
}

// AllowedSteps returns a copy of the steps a status may carry; nil for unknown statuses
func AllowedSteps(status Status) []Step {
	steps, ok := stepsByStatus[status]
	if !ok {
		return nil
	}
	return append([]Step(nil), steps...)
}

// AllowedSubtypes returns a copy of the subtypes a type may carry; nil for unknown types
func AllowedSubtypes(t Type) []Subtype {
	subtypes, ok := subtypesByType[t]
	if !ok {
		return nil
	}
	return append([]Subtype(nil), subtypes...)
}

// IsStepAllowedForStatus reports whether step belongs to the fixed set mapped from status
func IsStepAllowedForStatus(status Status, step Step) bool {
	for _, allowed := range stepsByStatus[status] {
		if allowed == step {
			return true
		}
	}
	return false
}

// IsSubtypeAllowedForType reports whether subtype belongs to the fixed set mapped from t
func IsSubtypeAllowedForType(t Type, subtype Subtype) bool {
	for _, allowed := range subtypesByType[t] {
		if allowed == subtype {
			return true
		}
	}
	return false
}

// ValidateStatusStep returns an InvalidStateError when step is not legal for status.
// Only membership is checked: any legal pair may be entered directly, so
// workflow ordering is enforced by the PurchaseOrder lifecycle methods, not here.
func ValidateStatusStep(status Status, step Step) error {
	if !IsStepAllowedForStatus(status, step) {
		return shared.NewInvalidStateError("status/step", string(status), string(step))
	}
	return nil
}

// ValidateTypeSubtype returns an InvalidStateError when subtype is not legal for t
func ValidateTypeSubtype(t Type, subtype Subtype) error {
	if !IsSubtypeAllowedForType(t, subtype) {
		return shared.NewInvalidStateError("type/subtype", string(t), string(subtype))
	}
	return nil
}
