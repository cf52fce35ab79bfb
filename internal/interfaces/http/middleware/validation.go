package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Vinicius2501/aqua-erp-sub001/internal/domain/procurement"
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/dto"
)

var (
	setupOnce sync.Once
	setupErr  error
)

// SetupValidator switches gin's validator to JSON field names and registers
// the purchase order tags. Safe to call more than once.
func SetupValidator() error {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			setupErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		setupErr = RegisterProcurementValidations(v)
	})
	return setupErr
}

// RegisterProcurementValidations adds po_status, po_step, po_type,
// po_decision, supplier_scope and payment_window to v
func RegisterProcurementValidations(v *validator.Validate) error {
	validations := map[string]validator.Func{
		"po_status": func(fl validator.FieldLevel) bool {
			return procurement.Status(fl.Field().String()).IsValid()
		},
		"po_step": func(fl validator.FieldLevel) bool {
			return procurement.Step(fl.Field().String()).IsValid()
		},
		"po_type": func(fl validator.FieldLevel) bool {
			return procurement.Type(fl.Field().String()).IsValid()
		},
		"po_decision": func(fl validator.FieldLevel) bool {
			return procurement.ApprovalStatus(fl.Field().String()).IsDecision()
		},
		"supplier_scope": func(fl validator.FieldLevel) bool {
			return procurement.SupplierScope(fl.Field().String()).IsValid()
		},
		"payment_window": validatePaymentWindow,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func validatePaymentWindow(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w := procurement.PaymentWindow(fl.Field().Int())
		return w.IsLastBusinessDay() || (w >= 1 && w <= 31)
	default:
		return false
	}
}

// FormatValidationErrors formats validation errors into the error envelope
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
				Tag:     e.Tag(),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 for a failed bind. Field errors become
// ERR_VALIDATION with details; anything else is a malformed body.
func HandleValidationError(c *gin.Context, err error) {
	requestID := GetRequestID(c)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInvalidJSON, "Malformed request body: "+err.Error(), requestID))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String || e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items or characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String || e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " items or characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "po_status":
		return "Must be a purchase order status"
	case "po_step":
		return "Must be a purchase order step"
	case "po_type":
		return "Must be products_services or reimbursement"
	case "po_decision":
		return "Must be approved or rejected"
	case "supplier_scope":
		return "Must be domestic or international"
	case "payment_window":
		return "Must be a day of month (1-31) or last_business_day"
	default:
		return "Invalid value"
	}
}
