package router

import "github.com/erp/checkout/internal/interfaces/http/handler"

// CheckoutRoutes maps the checkout session lifecycle onto /checkouts
func CheckoutRoutes(h *handler.CheckoutHandler) *DomainGroup {
	checkouts := NewDomainGroup("checkout", "/checkouts")
	checkouts.POST("", h.Open)
	checkouts.GET("/:id", h.Get)
	checkouts.DELETE("/:id", h.Cancel)
	checkouts.POST("/:id/close", h.Close)
	checkouts.GET("/:id/quick-fill", h.QuickFill)
	checkouts.POST("/:id/confirm", h.Confirm)
	checkouts.POST("/:id/receipt/deliveries", h.DeliverReceipt)

	payments := checkouts.Group("payments", "/:id/payments")
	payments.POST("", h.AddPayment)
	payments.POST("/validate", h.ValidatePayment)
	payments.DELETE("/:entryId", h.RemovePayment)

	return checkouts
}

// SystemRoutes exposes build info under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.GetSystemInfo)
	system.GET("/ping", h.Ping)
	return system
}
