package checkout

import (
	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ReconciliationState is the complete state of a split payment.
// Entries are kept in insertion order, which is also settlement order.
// Every transition returns a new value and leaves the receiver untouched.
type ReconciliationState struct {
	InvoiceTotal valueobject.Money
	Entries      []PaymentEntry
	Confirmed    bool
}

// NewReconciliationState returns an empty state for the given total
func NewReconciliationState(invoiceTotal valueobject.Money) ReconciliationState {
	return ReconciliationState{InvoiceTotal: invoiceTotal}
}

// TotalPaid returns Σ entries.amount
func (s ReconciliationState) TotalPaid() valueobject.Money {
	paid := valueobject.Zero()
	for _, e := range s.Entries {
		paid = paid.Add(e.Amount)
	}
	return paid
}

// Remaining returns max(0, invoiceTotal - totalPaid)
func (s ReconciliationState) Remaining() valueobject.Money {
	return s.InvoiceTotal.Sub(s.TotalPaid())
}

// Status derives the lifecycle state; remaining == 0 is the only settlement condition
func (s ReconciliationState) Status() Status {
	switch {
	case s.Confirmed:
		return StatusConfirmed
	case s.Remaining().IsZero():
		return StatusSettled
	default:
		return StatusOpen
	}
}

// WalletUsed sums the wallet portions of all admitted wallet entries
func (s ReconciliationState) WalletUsed() WalletRedemption {
	var used WalletRedemption
	for _, e := range s.Entries {
		r := e.WalletRedemption()
		used.PointsUsed = used.PointsUsed.Add(r.PointsUsed)
		used.RefundUsed = used.RefundUsed.Add(r.RefundUsed)
	}
	return used
}

// IndexOf returns the position of an entry or -1
func (s ReconciliationState) IndexOf(id uuid.UUID) int {
	for i := range s.Entries {
		if s.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Check applies the admission rules in order; the first failing rule wins.
// available is the wallet credit not yet consumed by earlier entries.
func (s ReconciliationState) Check(method PaymentMethod, amount valueobject.Money, available WalletBalance) error {
	if s.Confirmed {
		return ErrAlreadyConfirmed
	}
	if method == nil || !method.Kind().IsValid() {
		return ErrInvalidPaymentMethod
	}
	if !amount.IsPositive() {
		return newDomainError(ErrInvalidAmount, "Amount must be greater than zero")
	}
	if method.Kind() == MethodWallet && amount.GreaterThan(available.Total) {
		return newDomainError(ErrInsufficientWalletBalance,
			"Wallet redemption %s exceeds available wallet balance %s", amount.Display(), available.Total.Display())
	}
	remaining := s.Remaining()
	if amount.GreaterThan(remaining) {
		return newDomainError(ErrExceedsRemainingBalance,
			"Amount %s exceeds remaining balance %s", amount.Display(), remaining.Display())
	}
	if card, ok := method.(Card); ok && card.CardType == "" {
		return ErrMissingCardType
	}
	return nil
}

// WithEntry returns a state with the entry appended
func (s ReconciliationState) WithEntry(entry PaymentEntry) ReconciliationState {
	entries := make([]PaymentEntry, 0, len(s.Entries)+1)
	entries = append(entries, s.Entries...)
	entries = append(entries, entry)
	s.Entries = entries
	return s
}

// WithoutEntry returns a state with the entry removed and the removed entry.
// ok is false when no entry has that ID, in which case the state is returned as-is.
func (s ReconciliationState) WithoutEntry(id uuid.UUID) (next ReconciliationState, removed PaymentEntry, ok bool) {
	idx := s.IndexOf(id)
	if idx < 0 {
		return s, PaymentEntry{}, false
	}
	removed = s.Entries[idx]
	entries := make([]PaymentEntry, 0, len(s.Entries)-1)
	entries = append(entries, s.Entries[:idx]...)
	entries = append(entries, s.Entries[idx+1:]...)
	s.Entries = entries
	return s, removed, true
}

// AsConfirmed returns the state frozen as confirmed
func (s ReconciliationState) AsConfirmed() ReconciliationState {
	s.Confirmed = true
	return s
}

// Snapshot returns a copy of the entries safe to hand out
func (s ReconciliationState) Snapshot() []PaymentEntry {
	return append([]PaymentEntry(nil), s.Entries...)
}
