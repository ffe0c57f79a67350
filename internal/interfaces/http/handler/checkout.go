package handler

import (
	checkoutapp "github.com/erp/checkout/internal/application/checkout"
	"github.com/erp/checkout/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CheckoutHandler exposes split-payment checkout sessions over HTTP
type CheckoutHandler struct {
	BaseHandler
	checkoutService *checkoutapp.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService *checkoutapp.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Open godoc
//
//	@ID				openCheckout
//	@Summary		Open a checkout
//	@Description	Start a split-payment session for an invoice, optionally with the customer's wallet balance
//	@Tags			checkouts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		checkoutapp.OpenCheckoutRequest	true	"Invoice and wallet"
//	@Success		201		{object}	APIResponse[checkoutapp.CheckoutResponse]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		429		{object}	dto.ErrorResponse
//	@Router			/checkouts [post]
func (h *CheckoutHandler) Open(c *gin.Context) {
	var req checkoutapp.OpenCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.checkoutService.OpenCheckout(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
//
//	@ID				getCheckout
//	@Summary		Get a checkout
//	@Tags			checkouts
//	@Produce		json
//	@Param			id	path		string	true	"Checkout ID"	format(uuid)
//	@Success		200	{object}	APIResponse[checkoutapp.CheckoutResponse]
//	@Failure		404	{object}	dto.ErrorResponse
//	@Router			/checkouts/{id} [get]
func (h *CheckoutHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	resp, err := h.checkoutService.GetCheckout(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ValidatePayment godoc
//
//	@ID				validateCheckoutPayment
//	@Summary		Validate a candidate payment
//	@Description	Apply the admission rules without recording anything
//	@Tags			checkouts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Checkout ID"	format(uuid)
//	@Param			request	body		checkoutapp.PaymentRequest		true	"Candidate tender"
//	@Success		200		{object}	APIResponse[checkoutapp.ValidatePaymentResponse]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/payments/validate [post]
func (h *CheckoutHandler) ValidatePayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	var req checkoutapp.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.checkoutService.ValidatePayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AddPayment godoc
//
//	@ID				addCheckoutPayment
//	@Summary		Add a payment
//	@Description	Validate and admit a tender; the response reflects the new balance.
//	@Description	A repeated Idempotency-Key returns the current view with 200 and admits nothing.
//	@Tags			checkouts
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string						true	"Checkout ID"	format(uuid)
//	@Param			Idempotency-Key	header		string						false	"Client retry key"
//	@Param			request			body		checkoutapp.PaymentRequest	true	"Tender"
//	@Success		200				{object}	APIResponse[checkoutapp.CheckoutResponse]
//	@Success		201				{object}	APIResponse[checkoutapp.CheckoutResponse]
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse
//	@Failure		422		{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/payments [post]
func (h *CheckoutHandler) AddPayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	var req checkoutapp.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)

	resp, err := h.checkoutService.AddPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if resp.Replayed {
		h.Success(c, resp)
		return
	}
	h.Created(c, resp)
}

// RemovePayment godoc
//
//	@ID				removeCheckoutPayment
//	@Summary		Remove a payment
//	@Description	Take an entry back out; unknown entries leave the checkout unchanged
//	@Tags			checkouts
//	@Produce		json
//	@Param			id		path		string	true	"Checkout ID"	format(uuid)
//	@Param			entryId	path		string	true	"Entry ID"		format(uuid)
//	@Success		200		{object}	APIResponse[checkoutapp.CheckoutResponse]
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/payments/{entryId} [delete]
func (h *CheckoutHandler) RemovePayment(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}
	entryID, ok := h.parseUUIDParam(c, "entryId", "entry ID")
	if !ok {
		return
	}

	resp, err := h.checkoutService.RemovePayment(c.Request.Context(), id, entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// QuickFill godoc
//
//	@ID				quickFillCheckout
//	@Summary		Get quick-fill amounts
//	@Description	Remaining balance and the largest wallet redemption toward it
//	@Tags			checkouts
//	@Produce		json
//	@Param			id	path		string	true	"Checkout ID"	format(uuid)
//	@Success		200	{object}	APIResponse[checkoutapp.QuickFillResponse]
//	@Failure		404	{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/quick-fill [get]
func (h *CheckoutHandler) QuickFill(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	resp, err := h.checkoutService.QuickFill(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Confirm godoc
//
//	@ID				confirmCheckout
//	@Summary		Confirm a settled checkout
//	@Tags			checkouts
//	@Produce		json
//	@Param			id	path		string	true	"Checkout ID"	format(uuid)
//	@Success		200	{object}	APIResponse[checkoutapp.ReceiptResponse]
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		409	{object}	dto.ErrorResponse
//	@Failure		422	{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/confirm [post]
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	resp, err := h.checkoutService.ConfirmCheckout(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeliverReceipt godoc
//
//	@ID				deliverCheckoutReceipt
//	@Summary		Deliver the receipt
//	@Description	Send the confirmed receipt to each channel; failures are reported per channel
//	@Tags			checkouts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Checkout ID"	format(uuid)
//	@Param			request	body		checkoutapp.DeliverReceiptRequest	true	"Channels and phone"
//	@Success		200		{object}	APIResponse[checkoutapp.DeliverReceiptResponse]
//	@Failure		404		{object}	dto.ErrorResponse
//	@Failure		409		{object}	dto.ErrorResponse
//	@Failure		503		{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/receipt/deliveries [post]
func (h *CheckoutHandler) DeliverReceipt(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	var req checkoutapp.DeliverReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.checkoutService.DeliverReceipt(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel godoc
//
//	@ID				cancelCheckout
//	@Summary		Cancel an unconfirmed checkout
//	@Tags			checkouts
//	@Param			id	path	string	true	"Checkout ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		409	{object}	dto.ErrorResponse
//	@Router			/checkouts/{id} [delete]
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	if err := h.checkoutService.CancelCheckout(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Close godoc
//
//	@ID				closeCheckout
//	@Summary		Release a confirmed checkout
//	@Tags			checkouts
//	@Param			id	path	string	true	"Checkout ID"	format(uuid)
//	@Success		204
//	@Failure		404	{object}	dto.ErrorResponse
//	@Failure		409	{object}	dto.ErrorResponse
//	@Router			/checkouts/{id}/close [post]
func (h *CheckoutHandler) Close(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id", "checkout ID")
	if !ok {
		return
	}

	if err := h.checkoutService.CloseCheckout(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
