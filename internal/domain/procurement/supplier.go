package procurement

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/shared"
)

// SupplierScope selects the payment window set and the payment methods a supplier may use
type SupplierScope string

const (
	ScopeDomestic      SupplierScope = "domestic"
	ScopeInternational SupplierScope = "international"
)

// IsValid checks if the scope is a known SupplierScope
func (s SupplierScope) IsValid() bool {
	return s == ScopeDomestic || s == ScopeInternational
}

// PaymentMethodCode identifies how a supplier is paid
type PaymentMethodCode string

const (
	MethodPix          PaymentMethodCode = "pix"
	MethodBoleto       PaymentMethodCode = "boleto"
	MethodBankTransfer PaymentMethodCode = "bank_transfer"
	MethodWireTransfer PaymentMethodCode = "wire_transfer"
)

// AllowedIn reports whether the method can be used for the given scope
func (c PaymentMethodCode) AllowedIn(scope SupplierScope) bool {
	switch c {
	case MethodPix, MethodBoleto, MethodBankTransfer:
		return scope == ScopeDomestic
	case MethodWireTransfer:
		return scope == ScopeInternational
	}
	return false
}

// PaymentDetails is the method-specific payload of a PaymentMethod
type PaymentDetails interface {
	Method() PaymentMethodCode
	Validate() error
}

// PixKeyType is the kind of key registered for a Pix payment
type PixKeyType string

const (
	PixKeyCNPJ   PixKeyType = "cnpj"
	PixKeyEmail  PixKeyType = "email"
	PixKeyPhone  PixKeyType = "phone"
	PixKeyRandom PixKeyType = "random"
)

var (
	digitsOnly  = regexp.MustCompile(`^[0-9]+$`)
	emailLike   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneLike   = regexp.MustCompile(`^\+[0-9]{10,14}$`)
	swiftFormat = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	ibanFormat  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
)

// PixDetails pays to a Pix key
type PixDetails struct {
	KeyType PixKeyType `json:"key_type"`
	Key     string     `json:"key"`
}

func (PixDetails) Method() PaymentMethodCode { return MethodPix }

func (d PixDetails) Validate() error {
	key := strings.TrimSpace(d.Key)
	valid := false
	switch d.KeyType {
	case PixKeyCNPJ:
		valid = len(key) == 14 && digitsOnly.MatchString(key)
	case PixKeyEmail:
		valid = emailLike.MatchString(key)
	case PixKeyPhone:
		valid = phoneLike.MatchString(key)
	case PixKeyRandom:
		_, err := uuid.Parse(key)
		valid = err == nil
	}
	if !valid {
		return invalidDetails(MethodPix, fmt.Sprintf("invalid %s key", d.KeyType))
	}
	return nil
}

// BoletoDetails pays a bank slip identified by its typeable line or barcode
type BoletoDetails struct {
	Barcode string `json:"barcode"`
}

func (BoletoDetails) Method() PaymentMethodCode { return MethodBoleto }

func (d BoletoDetails) Validate() error {
	code := strings.NewReplacer(".", "", " ", "").Replace(d.Barcode)
	if !digitsOnly.MatchString(code) {
		return invalidDetails(MethodBoleto, "barcode must contain only digits")
	}
	switch len(code) {
	case 44, 47, 48:
		return nil
	}
	return invalidDetails(MethodBoleto, "barcode must have 44, 47 or 48 digits")
}

// BankTransferDetails pays a domestic bank account
type BankTransferDetails struct {
	BankCode    string `json:"bank_code"`
	Branch      string `json:"branch"`
	Account     string `json:"account"`
	AccountType string `json:"account_type"`
}

func (BankTransferDetails) Method() PaymentMethodCode { return MethodBankTransfer }

func (d BankTransferDetails) Validate() error {
	if len(d.BankCode) != 3 || !digitsOnly.MatchString(d.BankCode) {
		return invalidDetails(MethodBankTransfer, "bank code must have 3 digits")
	}
	if d.Branch == "" || d.Account == "" {
		return invalidDetails(MethodBankTransfer, "branch and account are required")
	}
	switch d.AccountType {
	case "checking", "savings":
		return nil
	}
	return invalidDetails(MethodBankTransfer, "account type must be checking or savings")
}

// WireTransferDetails pays a foreign bank account
type WireTransferDetails struct {
	SwiftCode       string `json:"swift_code"`
	IBAN            string `json:"iban,omitempty"`
	AccountNumber   string `json:"account_number,omitempty"`
	BankName        string `json:"bank_name"`
	BeneficiaryName string `json:"beneficiary_name"`
	Country         string `json:"country"`
}

func (WireTransferDetails) Method() PaymentMethodCode { return MethodWireTransfer }

func (d WireTransferDetails) Validate() error {
	if !swiftFormat.MatchString(d.SwiftCode) {
		return invalidDetails(MethodWireTransfer, "invalid SWIFT/BIC code")
	}
	if d.IBAN == "" && d.AccountNumber == "" {
		return invalidDetails(MethodWireTransfer, "IBAN or account number is required")
	}
	if d.IBAN != "" && !ibanFormat.MatchString(d.IBAN) {
		return invalidDetails(MethodWireTransfer, "invalid IBAN")
	}
	if d.BeneficiaryName == "" || len(d.Country) != 2 {
		return invalidDetails(MethodWireTransfer, "beneficiary name and 2-letter country are required")
	}
	return nil
}

func invalidDetails(method PaymentMethodCode, msg string) error {
	return shared.NewDomainError("INVALID_PAYMENT_DETAILS", fmt.Sprintf("%s: %s", method, msg))
}

// PaymentMethod pairs a method code with its details
type PaymentMethod struct {
	Code    PaymentMethodCode `json:"code"`
	Details PaymentDetails    `json:"details"`
}

// Validate checks that details match the code and are well formed
func (m PaymentMethod) Validate() error {
	if m.Details == nil {
		return invalidDetails(m.Code, "details are required")
	}
	if m.Details.Method() != m.Code {
		return invalidDetails(m.Code, fmt.Sprintf("details are for %s", m.Details.Method()))
	}
	return m.Details.Validate()
}

// UnmarshalJSON decodes details according to the method code
func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code    PaymentMethodCode `json:"code"`
		Details json.RawMessage   `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var details PaymentDetails
	switch raw.Code {
	case MethodPix:
		var d PixDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return err
		}
		details = d
	case MethodBoleto:
		var d BoletoDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return err
		}
		details = d
	case MethodBankTransfer:
		var d BankTransferDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return err
		}
		details = d
	case MethodWireTransfer:
		var d WireTransferDetails
		if err := json.Unmarshal(raw.Details, &d); err != nil {
			return err
		}
		details = d
	default:
		return fmt.Errorf("unknown payment method %q", raw.Code)
	}

	m.Code = raw.Code
	m.Details = details
	return nil
}

// Supplier is a vendor purchase orders are placed with
type Supplier struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Scope         SupplierScope `json:"scope"`
	TaxID         string        `json:"tax_id,omitempty"`
	Country       string        `json:"country"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

// NewSupplier creates a validated supplier
func NewSupplier(name string, scope SupplierScope, taxID, country string, method PaymentMethod) (*Supplier, error) {
	s := &Supplier{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(name),
		Scope:         scope,
		TaxID:         taxID,
		Country:       strings.ToUpper(country),
		PaymentMethod: method,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate enforces the scope-dependent rules of a supplier
func (s *Supplier) Validate() error {
	if s.Name == "" {
		return shared.NewDomainError("INVALID_SUPPLIER", "Supplier name cannot be empty")
	}
	switch s.Scope {
	case ScopeDomestic:
		if len(s.TaxID) != 14 || !digitsOnly.MatchString(s.TaxID) {
			return shared.NewDomainError("INVALID_SUPPLIER", "Domestic suppliers require a 14-digit CNPJ")
		}
		if s.Country != "BR" {
			return shared.NewDomainError("INVALID_SUPPLIER", "Domestic suppliers must be located in BR")
		}
	case ScopeInternational:
		if len(s.Country) != 2 || s.Country == "BR" {
			return shared.NewDomainError("INVALID_SUPPLIER", "International suppliers require a foreign 2-letter country code")
		}
	default:
		return shared.NewDomainError("INVALID_SUPPLIER", fmt.Sprintf("Invalid supplier scope %q", s.Scope))
	}
	if !s.PaymentMethod.Code.AllowedIn(s.Scope) {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD",
			fmt.Sprintf("Payment method %s is not available for %s suppliers", s.PaymentMethod.Code, s.Scope))
	}
	return s.PaymentMethod.Validate()
}

// IsDomestic reports whether the supplier is paid in the domestic window set
func (s *Supplier) IsDomestic() bool {
	return s.Scope == ScopeDomestic
}
