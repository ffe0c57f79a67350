package checkout

import (
	"time"

	"github.com/erp/checkout/internal/domain/checkout"
	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ==================== Requests ====================

// LineItemInput is one invoice line in an open request
type LineItemInput struct {
	Name      string `json:"name" binding:"required,max=200"`
	UnitPrice string `json:"unit_price" binding:"required,money"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// WalletInput is the customer's stored credit at checkout time.
// Total is optional; when given it must equal the two parts.
type WalletInput struct {
	RewardPoints  string `json:"reward_points"`
	RefundBalance string `json:"refund_balance"`
	Total         string `json:"total"`
}

// OpenCheckoutRequest starts a checkout for an invoice
type OpenCheckoutRequest struct {
	InvoiceID string          `json:"invoice_id" binding:"required,max=64"`
	Items     []LineItemInput `json:"items" binding:"dive"`
	Tax       string          `json:"tax"`
	Discount  string          `json:"discount"`
	Wallet    *WalletInput    `json:"wallet"`
}

// PaymentRequest is a candidate tender. Amount is the raw user input.
type PaymentRequest struct {
	Method    string `json:"method" binding:"max=16"`
	Amount    string `json:"amount" binding:"max=32"`
	CardType  string `json:"card_type" binding:"max=50"`
	LastFour  string `json:"last_four" binding:"max=20"`
	Reference string `json:"reference" binding:"max=100"`

	// IdempotencyKey comes from the Idempotency-Key header, never the body
	IdempotencyKey string `json:"-"`
}

// DeliverReceiptRequest sends a confirmed receipt to one or more channels
type DeliverReceiptRequest struct {
	Channels []string `json:"channels" binding:"required,min=1,max=8,dive,max=16"`
	Phone    string   `json:"phone" binding:"max=32"`
}

// ==================== Responses ====================

// CheckoutResponse is the full view of a checkout session
type CheckoutResponse struct {
	ID           uuid.UUID              `json:"id"`
	InvoiceID    string                 `json:"invoice_id"`
	Status       string                 `json:"status"`
	Subtotal     valueobject.Money      `json:"subtotal"`
	Tax          valueobject.Money      `json:"tax"`
	Discount     valueobject.Money      `json:"discount"`
	InvoiceTotal string                 `json:"invoice_total"`
	AmountDue    valueobject.Money      `json:"amount_due"`
	TotalPaid    valueobject.Money      `json:"total_paid"`
	Remaining    valueobject.Money      `json:"remaining"`
	Entries      []PaymentEntryResponse `json:"entries"`
	Wallet       WalletResponse         `json:"wallet"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Replayed     bool                   `json:"replayed,omitempty"`
}

// PaymentEntryResponse is one admitted tender
type PaymentEntryResponse struct {
	ID         uuid.UUID          `json:"id"`
	Method     string             `json:"method"`
	Amount     valueobject.Money  `json:"amount"`
	Detail     string             `json:"detail,omitempty"`
	PointsUsed *valueobject.Money `json:"points_used,omitempty"`
	RefundUsed *valueobject.Money `json:"refund_used,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// WalletResponse shows the opening snapshot and what is still redeemable
type WalletResponse struct {
	Total           valueobject.Money `json:"total"`
	RewardPoints    valueobject.Money `json:"reward_points"`
	RefundBalance   valueobject.Money `json:"refund_balance"`
	Available       valueobject.Money `json:"available"`
	AvailablePoints valueobject.Money `json:"available_points"`
	AvailableRefund valueobject.Money `json:"available_refund"`
}

// ValidatePaymentResponse reports a candidate that would be admitted
type ValidatePaymentResponse struct {
	Method         string            `json:"method"`
	Amount         valueobject.Money `json:"amount"`
	Remaining      valueobject.Money `json:"remaining"`
	RemainingAfter valueobject.Money `json:"remaining_after"`
}

// QuickFillResponse holds the pre-fill amounts for the current balance
type QuickFillResponse struct {
	Remaining valueobject.Money `json:"remaining"`
	Wallet    valueobject.Money `json:"wallet"`
	Points    valueobject.Money `json:"points"`
	Refund    valueobject.Money `json:"refund"`
}

// ReceiptResponse is the confirmed payment set
type ReceiptResponse struct {
	CheckoutID  uuid.UUID              `json:"checkout_id"`
	InvoiceID   string                 `json:"invoice_id"`
	Total       valueobject.Money      `json:"total"`
	Entries     []PaymentEntryResponse `json:"entries"`
	ConfirmedAt time.Time              `json:"confirmed_at"`
}

// DeliveryResultResponse is the outcome of one channel
type DeliveryResultResponse struct {
	Channel   string `json:"channel"`
	Delivered bool   `json:"delivered"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DeliverReceiptResponse lists per-channel outcomes in request order
type DeliverReceiptResponse struct {
	CheckoutID uuid.UUID                `json:"checkout_id"`
	Results    []DeliveryResultResponse `json:"results"`
}

// ==================== Mappers ====================

// ToCheckoutResponse maps a session to its view
func ToCheckoutResponse(invoice *checkout.Invoice, engine *checkout.Engine) CheckoutResponse {
	totals := invoice.Totals()
	snapshot := engine.WalletSnapshot()
	available := engine.AvailableWallet()
	return CheckoutResponse{
		ID:           engine.ID,
		InvoiceID:    invoice.ID,
		Status:       engine.Status().String(),
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Discount:     totals.Discount,
		InvoiceTotal: totals.Total.StringFixed(valueobject.MoneyPlaces),
		AmountDue:    engine.InvoiceTotal(),
		TotalPaid:    engine.TotalPaid(),
		Remaining:    engine.Remaining(),
		Entries:      ToPaymentEntryResponses(engine.Entries()),
		Wallet: WalletResponse{
			Total:           snapshot.Total,
			RewardPoints:    snapshot.RewardPoints,
			RefundBalance:   snapshot.RefundBalance,
			Available:       available.Total,
			AvailablePoints: available.RewardPoints,
			AvailableRefund: available.RefundBalance,
		},
		CreatedAt: engine.CreatedAt,
		UpdatedAt: engine.UpdatedAt,
	}
}

// ToPaymentEntryResponse maps one entry
func ToPaymentEntryResponse(entry checkout.PaymentEntry) PaymentEntryResponse {
	resp := PaymentEntryResponse{
		ID:        entry.ID,
		Method:    entry.Kind().String(),
		Amount:    entry.Amount,
		Detail:    entry.Detail,
		CreatedAt: entry.CreatedAt,
	}
	if entry.Kind() == checkout.MethodWallet {
		r := entry.WalletRedemption()
		resp.PointsUsed = &r.PointsUsed
		resp.RefundUsed = &r.RefundUsed
	}
	return resp
}

// ToPaymentEntryResponses maps entries in settlement order
func ToPaymentEntryResponses(entries []checkout.PaymentEntry) []PaymentEntryResponse {
	out := make([]PaymentEntryResponse, len(entries))
	for i, entry := range entries {
		out[i] = ToPaymentEntryResponse(entry)
	}
	return out
}

// ToReceiptResponse maps a confirmed receipt
func ToReceiptResponse(r checkout.Receipt) ReceiptResponse {
	return ReceiptResponse{
		CheckoutID:  r.CheckoutID,
		InvoiceID:   r.InvoiceID,
		Total:       r.Total,
		Entries:     ToPaymentEntryResponses(r.Entries),
		ConfirmedAt: r.ConfirmedAt,
	}
}
