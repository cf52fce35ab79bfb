package router

import (
	"github.com/Vinicius2501/aqua-erp-sub001/internal/interfaces/http/handler"
)

// ProcurementHandlers are the handlers mounted under /procurement
type ProcurementHandlers struct {
	PurchaseOrders   *handler.PurchaseOrderHandler
	PaymentSchedules *handler.PaymentScheduleHandler
	Preferences      *handler.PreferenceHandler
}

// NewProcurementGroup builds the /procurement route tree
func NewProcurementGroup(h ProcurementHandlers) *DomainGroup {
	group := NewDomainGroup("procurement", "/procurement")

	group.Group("lifecycle", "/lifecycle").
		GET("/steps", h.PurchaseOrders.AllowedSteps).
		POST("/validate", h.PurchaseOrders.ValidateLifecycle)

	group.Group("payment-windows", "/payment-windows").
		GET("", h.PaymentSchedules.PaymentWindows).
		POST("/next", h.PaymentSchedules.NextPaymentDate)

	group.Group("contracts", "/contracts").
		POST("/classify", h.PurchaseOrders.ClassifyContracts)

	group.Group("installments", "/installments").
		POST("/reconcile", h.PaymentSchedules.ReconcileInstallments)

	group.Group("purchase-orders", "/purchase-orders").
		POST("", h.PurchaseOrders.Create).
		POST("/submit", h.PurchaseOrders.Submit).
		POST("/decide", h.PurchaseOrders.Decide).
		POST("/link-contract", h.PurchaseOrders.LinkContract).
		POST("/finalize", h.PurchaseOrders.Finalize).
		POST("/schedule", h.PaymentSchedules.BuildSchedule)

	if h.Preferences != nil {
		group.Group("preferences", "/preferences").
			GET("/:key", h.Preferences.Get).
			PUT("/:key", h.Preferences.Put).
			DELETE("/:key", h.Preferences.Delete)
	}

	return group
}

// NewSystemGroup builds the /system route tree
func NewSystemGroup(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.GetSystemInfo)
}
