package checkout

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/checkout/internal/domain/shared"
	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
var testNow = time.Date(2026, 3, 14, 11, 30, 0, 0, time.UTC)

func sequentialIDs() func() uuid.UUID {
	n := 0
	return func() uuid.UUID {
		n++
		var id uuid.UUID
		id[15] = byte(n)
		return id
	}
}

func openTestEngine(t *testing.T, total string, wallet WalletBalance) *Engine {
	t.Helper()
	e, err := OpenSession(money(t, total), wallet,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
	)
	require.NoError(t, err)
	return e
}

func noWallet() WalletBalance {
	return WalletBalance{}
}

func sampleWallet(t *testing.T) WalletBalance {
	return NewWalletBalance(money(t, "150"), money(t, "200"))
}

func eventTypes(e *Engine) []string {
	var types []string
	for _, ev := range e.GetDomainEvents() {
		types = append(types, ev.EventType())
	}
	return types
}

// assertInvariants checks the balance identities that must hold after every operation
func assertInvariants(t *testing.T, e *Engine) {
	t.Helper()
	sum := valueobject.Zero()
	for _, entry := range e.Entries() {
		assert.True(t, entry.Amount.IsPositive(), "entry amounts are positive")
		sum = sum.Add(entry.Amount)
	}
	assert.True(t, e.TotalPaid().Equals(sum), "totalPaid is the sum of entries")
	assert.True(t, e.TotalPaid().LessThanOrEqual(e.InvoiceTotal()), "never overpaid")
	assert.True(t, e.Remaining().Equals(e.InvoiceTotal().Sub(e.TotalPaid())), "remaining is total minus paid")
	if e.Status() != StatusConfirmed {
		assert.Equal(t, e.Remaining().IsZero(), e.Status() == StatusSettled, "settled iff remaining is zero")
	}
}

// ==================== OpenSession ====================

func TestOpenSession(t *testing.T) {
	t.Run("opens with full balance outstanding", func(t *testing.T) {
		e := openTestEngine(t, "2395", noWallet())
		assert.Equal(t, StatusOpen, e.Status())
		assert.Equal(t, "2395", e.Remaining().String())
		assert.True(t, e.TotalPaid().IsZero())
		assert.Empty(t, e.Entries())
		assert.Equal(t, []string{EventTypeCheckoutOpened}, eventTypes(e))
		assert.Equal(t, testNow, e.CreatedAt)
	})

	t.Run("zero total opens already settled", func(t *testing.T) {
		e := openTestEngine(t, "0", noWallet())
		assert.Equal(t, StatusSettled, e.Status())
		entries, err := e.Confirm()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("rejects inconsistent wallet", func(t *testing.T) {
		bad := WalletBalance{Total: money(t, "350"), RewardPoints: money(t, "150"), RefundBalance: money(t, "100")}
		_, err := OpenSession(money(t, "500"), bad)
		assert.True(t, errors.Is(err, ErrInvalidWalletBalance))
	})
}

func TestEngine_CashThenCardSettles(t *testing.T) {
	inv := sampleInvoice(t)
	e := openTestEngine(t, inv.Totals().Payable().String(), noWallet())

	cash, err := e.Submit(Cash{}, "1000")
	require.NoError(t, err)
	assert.Equal(t, "", cash.Detail)
	assert.Equal(t, "1395", e.Remaining().String())
	assert.Equal(t, StatusOpen, e.Status())
	assertInvariants(t, e)

	card, err := e.Submit(Card{CardType: "Visa", LastFour: "1234"}, "1395")
	require.NoError(t, err)
	assert.Equal(t, "Visa ****1234", card.Detail)
	assert.True(t, e.Remaining().IsZero())
	assert.Equal(t, StatusSettled, e.Status())
	assertInvariants(t, e)

	entries, err := e.Confirm()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, MethodCash, entries[0].Kind())
	assert.Equal(t, MethodCard, entries[1].Kind())
	assert.Equal(t, StatusConfirmed, e.Status())

	assert.Equal(t, []string{
		EventTypeCheckoutOpened,
		EventTypePaymentAdmitted,
		EventTypePaymentAdmitted,
		EventTypeCheckoutSettled,
		EventTypeCheckoutConfirmed,
	}, eventTypes(e))
}

func TestEngine_WalletSplitsPointsThenRefund(t *testing.T) {
	e := openTestEngine(t, "500", sampleWallet(t))

	entry, err := e.Submit(Wallet{}, "300")
	require.NoError(t, err)

	r := entry.WalletRedemption()
	assert.Equal(t, "150", r.PointsUsed.String())
	assert.Equal(t, "150", r.RefundUsed.String())
	assert.Equal(t, "150 pts + ₹150 refund used", entry.Detail)
	assert.Equal(t, "200", e.Remaining().String())
	assertInvariants(t, e)

	// Caller's snapshot is untouched
	assert.Equal(t, "350", e.WalletSnapshot().Total.String())
}

func TestEngine_InsufficientWalletLeavesStateUnchanged(t *testing.T) {
	e := openTestEngine(t, "500", sampleWallet(t))
	before := e.State()

	_, err := e.Submit(Wallet{}, "400")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientWalletBalance))
	assert.Equal(t, before, e.State())
	assert.Equal(t, []string{EventTypeCheckoutOpened}, eventTypes(e))
}

func TestEngine_RemoveReopensSettled(t *testing.T) {
	e := openTestEngine(t, "300", noWallet())

	entry, err := e.Submit(Cash{}, "300")
	require.NoError(t, err)
	assert.Equal(t, StatusSettled, e.Status())

	require.NoError(t, e.Remove(entry.ID))
	assert.Equal(t, "300", e.Remaining().String())
	assert.Equal(t, StatusOpen, e.Status())

	_, err = e.Confirm()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBalanceNotSettled))

	var notSettled *BalanceNotSettledError
	require.True(t, errors.As(err, &notSettled))
	assert.Equal(t, "300", notSettled.Remaining.String())
	assert.Equal(t, StatusOpen, e.Status())
}

// ==================== ValidateCandidate ====================

func TestEngine_ValidateCandidate(t *testing.T) {
	tests := []struct {
		name    string
		method  PaymentMethod
		raw     string
		want    string
		wantErr *shared.DomainError
	}{
		{"valid cash", Cash{}, "100", "100", nil},
		{"exact remaining", UPI{Reference: "ref"}, "500", "500", nil},
		{"empty amount", Cash{}, "", "", ErrInvalidAmount},
		{"not a number", Cash{}, "ten", "", ErrInvalidAmount},
		{"zero", Cash{}, "0", "", ErrInvalidAmount},
		{"negative", Cash{}, "-1", "", ErrInvalidAmount},
		{"too precise", Cash{}, "1.001", "", ErrInvalidAmount},
		{"exponent", Cash{}, "1e2", "", ErrInvalidAmount},
		{"huge exponent", Cash{}, "1e100000000", "", ErrInvalidAmount},
		{"too many digits", Cash{}, "1000000000000000", "", ErrInvalidAmount},
		{"over remaining", Cash{}, "500.01", "", ErrExceedsRemainingBalance},
		{"wallet within balance", Wallet{}, "350", "350", nil},
		{"wallet over balance", Wallet{}, "351", "", ErrInsufficientWalletBalance},
		{"card without type", Card{}, "100", "", ErrMissingCardType},
		{"nil method", nil, "100", "", ErrInvalidPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := openTestEngine(t, "500", sampleWallet(t))
			before := e.State()

			got, err := e.ValidateCandidate(tt.method, tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.String())
			}
			assert.Equal(t, before, e.State(), "validation never mutates")
		})
	}
}

func TestEngine_ValidateCandidate_HugeExponentFailsFast(t *testing.T) {
	e := openTestEngine(t, "500", noWallet())

	start := time.Now()
	_, err := e.ValidateCandidate(Cash{}, "1e100000000")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))
	assert.Less(t, len(err.Error()), 200)
	assert.Less(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, "500", e.Remaining().String())
}

func TestEngine_ValidateCandidate_RuleOrder(t *testing.T) {
	e := openTestEngine(t, "300", sampleWallet(t))

	t.Run("wallet ceiling is checked before remaining", func(t *testing.T) {
		_, err := e.ValidateCandidate(Wallet{}, "400")
		assert.True(t, errors.Is(err, ErrInsufficientWalletBalance))
	})

	t.Run("remaining is checked before card type", func(t *testing.T) {
		_, err := e.ValidateCandidate(Card{}, "301")
		assert.True(t, errors.Is(err, ErrExceedsRemainingBalance))
	})

	t.Run("amount is checked first", func(t *testing.T) {
		_, err := e.ValidateCandidate(Card{}, "abc")
		assert.True(t, errors.Is(err, ErrInvalidAmount))
	})
}

// ==================== Admit ====================

func TestEngine_Admit(t *testing.T) {
	t.Run("re-checks rules", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		_, err := e.Admit(Cash{}, money(t, "150"))
		assert.True(t, errors.Is(err, ErrExceedsRemainingBalance))
		assert.Empty(t, e.Entries())

		_, err = e.Admit(Cash{}, valueobject.Zero())
		assert.True(t, errors.Is(err, ErrInvalidAmount))
	})

	t.Run("stamps id and time", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		entry, err := e.Admit(UPI{Reference: "77@upi"}, money(t, "40"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, testNow, entry.CreatedAt)
		assert.Equal(t, "77@upi", entry.Detail)
		assert.Equal(t, 2, e.GetVersion())
	})

	t.Run("entries are copied on read", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		_, err := e.Admit(Cash{}, money(t, "40"))
		require.NoError(t, err)

		entries := e.Entries()
		entries[0].Amount = money(t, "99")
		assert.Equal(t, "40", e.Entries()[0].Amount.String())
		assert.Equal(t, "60", e.Remaining().String())
	})

	t.Run("settled session admits nothing", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		_, err := e.Submit(Cash{}, "100")
		require.NoError(t, err)
		_, err = e.Submit(Cash{}, "0.01")
		assert.True(t, errors.Is(err, ErrExceedsRemainingBalance))
	})

	t.Run("paise settle exactly", func(t *testing.T) {
		e := openTestEngine(t, "0.30", noWallet())
		for range 3 {
			_, err := e.Submit(Cash{}, "0.10")
			require.NoError(t, err)
		}
		assert.Equal(t, StatusSettled, e.Status())
		assertInvariants(t, e)
	})
}

// ==================== Wallet consumption ====================

func TestEngine_WalletConsumption(t *testing.T) {
	e := openTestEngine(t, "1000", sampleWallet(t))

	first, err := e.Submit(Wallet{}, "100")
	require.NoError(t, err)
	assert.Equal(t, "100 pts used", first.Detail)

	available := e.AvailableWallet()
	assert.Equal(t, "250", available.Total.String())
	assert.Equal(t, "50", available.RewardPoints.String())
	assert.Equal(t, "200", available.RefundBalance.String())

	second, err := e.Submit(Wallet{}, "120")
	require.NoError(t, err)
	assert.Equal(t, "50 pts + ₹70 refund used", second.Detail)

	third, err := e.Submit(Wallet{}, "100")
	require.NoError(t, err)
	assert.Equal(t, "₹100 refund used", third.Detail)

	_, err = e.Submit(Wallet{}, "31")
	assert.True(t, errors.Is(err, ErrInsufficientWalletBalance))

	require.NoError(t, e.Remove(second.ID))
	assert.Equal(t, "150", e.AvailableWallet().Total.String())
	assert.Equal(t, "50", e.AvailableWallet().RewardPoints.String())
	assert.Equal(t, sampleWallet(t), e.WalletSnapshot())
	assertInvariants(t, e)
}

// ==================== Remove ====================

func TestEngine_Remove(t *testing.T) {
	t.Run("unknown id is a no-op", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		_, err := e.Submit(Cash{}, "40")
		require.NoError(t, err)
		before := e.State()

		require.NoError(t, e.Remove(uuid.New()))
		assert.Equal(t, before, e.State())
	})

	t.Run("keeps order of remaining entries", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		a, _ := e.Submit(Cash{}, "10")
		b, _ := e.Submit(UPI{}, "20")
		c, _ := e.Submit(Card{CardType: "Amex"}, "30")

		require.NoError(t, e.Remove(b.ID))
		entries := e.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, a.ID, entries[0].ID)
		assert.Equal(t, c.ID, entries[1].ID)
		assert.Equal(t, "60", e.Remaining().String())
	})

	t.Run("admit then remove round-trips", func(t *testing.T) {
		e := openTestEngine(t, "500", sampleWallet(t))
		_, err := e.Submit(Cash{}, "50")
		require.NoError(t, err)
		before := e.State()
		wallet := e.AvailableWallet()

		entry, err := e.Submit(Wallet{}, "200")
		require.NoError(t, err)
		require.NoError(t, e.Remove(entry.ID))

		assert.Equal(t, before.Remaining(), e.State().Remaining())
		assert.Equal(t, before.Entries, e.State().Entries)
		assert.Equal(t, before.Status(), e.Status())
		assert.Equal(t, wallet, e.AvailableWallet())
	})

	t.Run("refused after confirmation", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		entry, _ := e.Submit(Cash{}, "100")
		_, err := e.Confirm()
		require.NoError(t, err)

		err = e.Remove(entry.ID)
		assert.True(t, errors.Is(err, ErrAlreadyConfirmed))
		assert.Len(t, e.Entries(), 1)
	})
}

// ==================== Confirm ====================

func TestEngine_Confirm(t *testing.T) {
	t.Run("is not idempotent", func(t *testing.T) {
		e := openTestEngine(t, "100", noWallet())
		_, err := e.Submit(Cash{}, "100")
		require.NoError(t, err)

		entries, err := e.Confirm()
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		_, err = e.Confirm()
		assert.True(t, errors.Is(err, ErrAlreadyConfirmed))
		assert.Equal(t, StatusConfirmed, e.Status())
	})

	t.Run("confirmed session rejects new entries", func(t *testing.T) {
		e := openTestEngine(t, "0", noWallet())
		_, err := e.Confirm()
		require.NoError(t, err)

		_, err = e.ValidateCandidate(Cash{}, "1")
		assert.True(t, errors.Is(err, ErrAlreadyConfirmed))
		_, err = e.Admit(Cash{}, money(t, "1"))
		assert.True(t, errors.Is(err, ErrAlreadyConfirmed))
	})

	t.Run("confirmed event totals by method", func(t *testing.T) {
		e := openTestEngine(t, "500", sampleWallet(t))
		_, _ = e.Submit(Cash{}, "100")
		_, _ = e.Submit(Cash{}, "50")
		_, _ = e.Submit(Wallet{}, "350")
		_, err := e.Confirm()
		require.NoError(t, err)

		events := e.GetDomainEvents()
		confirmed, ok := events[len(events)-1].(*CheckoutConfirmedEvent)
		require.True(t, ok)
		assert.Equal(t, 3, confirmed.EntryCount)
		assert.Equal(t, "150", confirmed.ByMethod[MethodCash].String())
		assert.Equal(t, "350", confirmed.ByMethod[MethodWallet].String())
		assert.Equal(t, testNow, confirmed.ConfirmedAt)
		assert.Equal(t, e.ID, confirmed.AggregateID())
	})
}

// ==================== Quick fill ====================

func TestEngine_Suggestions(t *testing.T) {
	e := openTestEngine(t, "500", sampleWallet(t))
	assert.Equal(t, "500", e.QuickFillRemaining().String())

	s := e.Suggestions()
	assert.Equal(t, "500", s.Remaining.String())
	assert.Equal(t, "350", s.Wallet.String())
	assert.Equal(t, "150", s.Points.String())
	assert.Equal(t, "200", s.Refund.String())

	_, err := e.Submit(Cash{}, "400")
	require.NoError(t, err)
	s = e.Suggestions()
	assert.Equal(t, "100", s.Wallet.String())
	assert.Equal(t, "100", s.Points.String())
	assert.Equal(t, "100", s.Refund.String())

	// Quick fill always passes validation
	_, err = e.ValidateCandidate(Wallet{}, s.Wallet.String())
	assert.NoError(t, err)
}

// ==================== Removed event ====================

func TestEngine_RemoveEvent(t *testing.T) {
	e := openTestEngine(t, "100", noWallet())
	entry, _ := e.Submit(Cash{}, "100")
	e.ClearDomainEvents()

	require.NoError(t, e.Remove(entry.ID))
	events := e.GetDomainEvents()
	require.Len(t, events, 1)
	removed, ok := events[0].(*PaymentRemovedEvent)
	require.True(t, ok)
	assert.Equal(t, StatusSettled, removed.PreviousStatus)
	assert.Equal(t, StatusOpen, removed.Status)
	assert.Equal(t, "100", removed.Remaining.String())
}
