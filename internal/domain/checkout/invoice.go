package checkout

import (
	"strings"

	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineItem is one priced line of an invoice. It is immutable once checkout begins.
type LineItem struct {
	Name      string            `json:"name"`
	UnitPrice valueobject.Money `json:"unit_price"`
	Quantity  int               `json:"quantity"`
}

// NewLineItem creates a validated line item
func NewLineItem(name string, unitPrice valueobject.Money, quantity int) (LineItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LineItem{}, newDomainError(ErrInvalidInvoice, "Line item name cannot be empty")
	}
	if quantity <= 0 {
		return LineItem{}, newDomainError(ErrInvalidInvoice, "Quantity for %q must be positive", name)
	}
	return LineItem{Name: name, UnitPrice: unitPrice, Quantity: quantity}, nil
}

// LineTotal returns unit price times quantity
func (i LineItem) LineTotal() valueobject.Money {
	return i.UnitPrice.MultiplyByInt(int64(i.Quantity))
}

// Invoice is the read-only bill a checkout settles
type Invoice struct {
	ID       string            `json:"id"`
	Items    []LineItem        `json:"items"`
	Tax      valueobject.Money `json:"tax"`
	Discount valueobject.Money `json:"discount"`
}

// NewInvoice creates an invoice, copying the items so later caller edits cannot leak in
func NewInvoice(id string, items []LineItem, tax, discount valueobject.Money) (*Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, newDomainError(ErrInvalidInvoice, "Invoice ID cannot be empty")
	}
	for _, item := range items {
		if _, err := NewLineItem(item.Name, item.UnitPrice, item.Quantity); err != nil {
			return nil, err
		}
	}
	return &Invoice{
		ID:       id,
		Items:    append([]LineItem(nil), items...),
		Tax:      tax,
		Discount: discount,
	}, nil
}

// Totals computes subtotal and total for the invoice
func (inv *Invoice) Totals() InvoiceTotals {
	return CalculateTotals(inv.Items, inv.Tax, inv.Discount)
}

// InvoiceTotals is the result of pricing an invoice.
// Total is signed: a discount larger than subtotal plus tax is surfaced as-is.
type InvoiceTotals struct {
	Subtotal valueobject.Money
	Tax      valueobject.Money
	Discount valueobject.Money
	Total    decimal.Decimal
}

// CalculateTotals returns subtotal = Σ unitPrice*quantity and total = subtotal + tax - discount
func CalculateTotals(items []LineItem, tax, discount valueobject.Money) InvoiceTotals {
	subtotal := valueobject.Zero()
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	total := subtotal.Amount().Add(tax.Amount()).Sub(discount.Amount())
	return InvoiceTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}

// Payable returns the amount the reconciliation engine must collect.
// A zero or negative total yields zero, so the session opens already settled.
func (t InvoiceTotals) Payable() valueobject.Money {
	if !t.Total.IsPositive() {
		return valueobject.Zero()
	}
	return valueobject.MustNewMoney(t.Total)
}
