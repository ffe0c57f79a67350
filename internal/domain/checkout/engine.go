package checkout

import (
	"time"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AggregateType is the aggregate name used on checkout events
const AggregateType = "Checkout"

// Engine reconciles a single checkout session: it admits and removes payment
// entries against the invoice total until the balance is settled and confirmed.
//
// Engine is not safe for concurrent use. The owning session must serialize calls.
type Engine struct {
	shared.BaseAggregateRoot
	state  ReconciliationState
	wallet WalletBalance
	now    func() time.Time
	newID  func() uuid.UUID
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithClock overrides the time source used to stamp entries
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides the entry ID source
func WithIDGenerator(newID func() uuid.UUID) EngineOption {
	return func(e *Engine) {
		e.newID = newID
	}
}

// OpenSession starts reconciliation of invoiceTotal against a wallet snapshot.
// The snapshot must be internally consistent; it is never mutated.
func OpenSession(invoiceTotal valueobject.Money, wallet WalletBalance, opts ...EngineOption) (*Engine, error) {
	if err := wallet.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		state:  NewReconciliationState(invoiceTotal),
		wallet: wallet,
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.BaseAggregateRoot = shared.NewBaseAggregateRoot(e.now())
	e.AddDomainEvent(NewCheckoutOpenedEvent(e))
	return e, nil
}

// ValidateCandidate parses rawAmount and checks it against the current balance
// without changing anything.
func (e *Engine) ValidateCandidate(method PaymentMethod, rawAmount string) (valueobject.Money, error) {
	if e.state.Confirmed {
		return valueobject.Money{}, ErrAlreadyConfirmed
	}
	amount, err := valueobject.ParsePositiveMoney(rawAmount)
	if err != nil {
		return valueobject.Money{}, err
	}
	if err := e.state.Check(method, amount, e.AvailableWallet()); err != nil {
		return valueobject.Money{}, err
	}
	return amount, nil
}

// Admit records a validated payment. The rules are re-checked so an entry that
// would overpay or overdraw the wallet is never admitted.
func (e *Engine) Admit(method PaymentMethod, amount valueobject.Money) (PaymentEntry, error) {
	available := e.AvailableWallet()
	if err := e.state.Check(method, amount, available); err != nil {
		return PaymentEntry{}, err
	}

	if _, ok := method.(Wallet); ok {
		r := available.Decompose(amount)
		method = Wallet{PointsPortion: r.PointsUsed, RefundPortion: r.RefundUsed}
	}

	entry := PaymentEntry{
		ID:        e.newID(),
		Method:    method,
		Amount:    amount,
		Detail:    describe(method),
		CreatedAt: e.now(),
	}

	previous := e.state.Status()
	e.state = e.state.WithEntry(entry)
	e.touch()

	e.AddDomainEvent(NewPaymentAdmittedEvent(e, entry))
	if previous != StatusSettled && e.state.Status() == StatusSettled {
		e.AddDomainEvent(NewCheckoutSettledEvent(e))
	}
	return entry, nil
}

// Submit validates rawAmount and admits it in one step
func (e *Engine) Submit(method PaymentMethod, rawAmount string) (PaymentEntry, error) {
	amount, err := e.ValidateCandidate(method, rawAmount)
	if err != nil {
		return PaymentEntry{}, err
	}
	return e.Admit(method, amount)
}

// Remove deletes an entry. Unknown IDs are ignored.
// Removing from a settled session reopens it when a balance is owed again.
func (e *Engine) Remove(entryID uuid.UUID) error {
	if e.state.Confirmed {
		return ErrAlreadyConfirmed
	}
	next, removed, ok := e.state.WithoutEntry(entryID)
	if !ok {
		return nil
	}
	previous := e.state.Status()
	e.state = next
	e.touch()
	e.AddDomainEvent(NewPaymentRemovedEvent(e, removed, previous))
	return nil
}

// Confirm finalizes a settled session and returns the entries in settlement order
func (e *Engine) Confirm() ([]PaymentEntry, error) {
	if e.state.Confirmed {
		return nil, ErrAlreadyConfirmed
	}
	if remaining := e.state.Remaining(); remaining.IsPositive() {
		return nil, &BalanceNotSettledError{Remaining: remaining}
	}
	e.state = e.state.AsConfirmed()
	e.touch()
	e.AddDomainEvent(NewCheckoutConfirmedEvent(e))
	return e.state.Snapshot(), nil
}

// QuickFillRemaining returns the amount that would settle the balance in one entry
func (e *Engine) QuickFillRemaining() valueobject.Money {
	return e.state.Remaining()
}

// Remaining returns the outstanding balance, never negative
func (e *Engine) Remaining() valueobject.Money {
	return e.state.Remaining()
}

// TotalPaid returns the sum of admitted entries
func (e *Engine) TotalPaid() valueobject.Money {
	return e.state.TotalPaid()
}

// InvoiceTotal returns the amount being settled
func (e *Engine) InvoiceTotal() valueobject.Money {
	return e.state.InvoiceTotal
}

// Entries returns a copy of the admitted entries in settlement order
func (e *Engine) Entries() []PaymentEntry {
	return e.state.Snapshot()
}

// Status returns OPEN, SETTLED or CONFIRMED
func (e *Engine) Status() Status {
	return e.state.Status()
}

// State returns a copy of the full reconciliation state
func (e *Engine) State() ReconciliationState {
	s := e.state
	s.Entries = e.state.Snapshot()
	return s
}

// WalletSnapshot returns the wallet balance the session was opened with
func (e *Engine) WalletSnapshot() WalletBalance {
	return e.wallet
}

// AvailableWallet returns the wallet credit not yet consumed by admitted entries
func (e *Engine) AvailableWallet() WalletBalance {
	return e.wallet.without(e.state.WalletUsed())
}

// Suggestions returns the quick-redeem amounts for the current balance
func (e *Engine) Suggestions() QuickRedeem {
	remaining := e.state.Remaining()
	available := e.AvailableWallet()
	return QuickRedeem{
		Remaining: remaining,
		Wallet:    available.SuggestWallet(remaining),
		Points:    available.SuggestPoints(remaining),
		Refund:    available.SuggestRefund(remaining),
	}
}

// QuickRedeem holds pre-fill amounts a UI may offer; nothing here mutates state
type QuickRedeem struct {
	Remaining valueobject.Money
	Wallet    valueobject.Money
	Points    valueobject.Money
	Refund    valueobject.Money
}

func (e *Engine) touch() {
	e.MarkChanged(e.now())
}
