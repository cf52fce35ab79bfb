package procurement

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// SupplierDocument is a contract uploaded for a supplier.
// HasValidity is optional; when nil it is inferred from the presence of either bound.
type SupplierDocument struct {
	ID          uuid.UUID  `json:"id"`
	SupplierID  uuid.UUID  `json:"supplier_id"`
	FileName    string     `json:"file_name"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	HasValidity *bool      `json:"has_validity,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ResolvedHasValidity returns the explicit flag or infers it from the bounds
func (d SupplierDocument) ResolvedHasValidity() bool {
	if d.HasValidity != nil {
		return *d.HasValidity
	}
	return d.ValidFrom != nil || d.ValidUntil != nil
}

// ContractVersion is a SupplierDocument ranked by recency and classified against "now"
type ContractVersion struct {
	Document         SupplierDocument `json:"document"`
	Version          int              `json:"version"`
	HasValidity      bool             `json:"has_validity"`
	IsExpired        bool             `json:"is_expired"`
	IsNotYetValid    bool             `json:"is_not_yet_valid"`
	IsWithinValidity bool             `json:"is_within_validity"`
}

// Selectable reports whether the version may be linked to a purchase order
func (v ContractVersion) Selectable() bool {
	return v.IsWithinValidity
}

// ClassifyContractVersions numbers documents so the first one in input order
// (the most recent upload) gets the highest version, classifies each against
// now and returns them sorted ascending by version.
func ClassifyContractVersions(documents []SupplierDocument, now time.Time) []ContractVersion {
	n := len(documents)
	versions := make([]ContractVersion, 0, n)
	for i, doc := range documents {
		versions = append(versions, classify(doc, n-i, now))
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Version < versions[j].Version
	})
	return versions
}

func classify(doc SupplierDocument, version int, now time.Time) ContractVersion {
	v := ContractVersion{
		Document:    doc,
		Version:     version,
		HasValidity: doc.ResolvedHasValidity(),
	}
	if !v.HasValidity {
		v.IsWithinValidity = true
		return v
	}

	v.IsExpired = doc.ValidUntil != nil && doc.ValidUntil.Before(now)
	v.IsNotYetValid = doc.ValidFrom != nil && doc.ValidFrom.After(now)
	// validity declared without any bound is incomplete data
	hasBound := doc.ValidFrom != nil || doc.ValidUntil != nil
	v.IsWithinValidity = hasBound && !v.IsExpired && !v.IsNotYetValid
	return v
}

// CurrentContract returns the highest selectable version, if any
func CurrentContract(versions []ContractVersion) (ContractVersion, bool) {
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].Selectable() {
			return versions[i], true
		}
	}
	return ContractVersion{}, false
}

// SelectContract picks documentID from classified versions, refusing
// documents that are not within validity.
func SelectContract(versions []ContractVersion, documentID uuid.UUID) (ContractVersion, error) {
	for _, v := range versions {
		if v.Document.ID != documentID {
			continue
		}
		if !v.Selectable() {
			return ContractVersion{}, shared.NewDomainError("CONTRACT_NOT_SELECTABLE",
				fmt.Sprintf("Contract version %d is not within its validity period", v.Version))
		}
		return v, nil
	}
	return ContractVersion{}, shared.NewDomainError("NOT_FOUND", "Contract document not found")
}
