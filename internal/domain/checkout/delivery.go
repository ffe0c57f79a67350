package checkout

import (
	"context"
	"time"

	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DeliveryChannel names a receipt output
type DeliveryChannel string

const (
	ChannelPrint    DeliveryChannel = "PRINT"
	ChannelWhatsApp DeliveryChannel = "WHATSAPP"
	ChannelSMS      DeliveryChannel = "SMS"
)

// IsValid checks if the channel is a known output
func (c DeliveryChannel) IsValid() bool {
	switch c {
	case ChannelPrint, ChannelWhatsApp, ChannelSMS:
		return true
	}
	return false
}

// String returns the string representation of DeliveryChannel
func (c DeliveryChannel) String() string {
	return string(c)
}

// NeedsDestination returns true for channels that send to a phone number
func (c DeliveryChannel) NeedsDestination() bool {
	return c == ChannelWhatsApp || c == ChannelSMS
}

// Receipt is the confirmed payment set handed to delivery
type Receipt struct {
	CheckoutID  uuid.UUID
	InvoiceID   string
	Items       []LineItem
	Totals      InvoiceTotals
	Total       valueobject.Money
	Entries     []PaymentEntry
	ConfirmedAt time.Time
}

// NewReceipt builds a receipt from a confirmed engine. Delivery never happens before confirmation.
func NewReceipt(invoice *Invoice, e *Engine) (Receipt, error) {
	if e.Status() != StatusConfirmed {
		return Receipt{}, ErrNotConfirmed
	}
	totals := invoice.Totals()
	return Receipt{
		CheckoutID:  e.ID,
		InvoiceID:   invoice.ID,
		Items:       append([]LineItem(nil), invoice.Items...),
		Totals:      totals,
		Total:       e.InvoiceTotal(),
		Entries:     e.Entries(),
		ConfirmedAt: e.UpdatedAt,
	}, nil
}

// DeliveryRequest asks for a receipt to go out on one or more channels
type DeliveryRequest struct {
	Receipt     Receipt
	Destination string
	Channels    []DeliveryChannel
}

// DeliveryResult reports the outcome of one channel
type DeliveryResult struct {
	Channel DeliveryChannel
	Message string
	Err     error
}

// Delivered returns true if the channel succeeded
func (r DeliveryResult) Delivered() bool {
	return r.Err == nil
}

// ReceiptDispatcher formats and sends confirmed receipts.
// Channels are independent: one failing never affects the others.
type ReceiptDispatcher interface {
	Dispatch(ctx context.Context, req DeliveryRequest) []DeliveryResult
}
