package checkout

import (
	"strings"
	"time"
	"unicode"

	"github.com/erp/checkout/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// MethodKind identifies a tender type
type MethodKind string

const (
	MethodCash   MethodKind = "CASH"
	MethodCard   MethodKind = "CARD"
	MethodUPI    MethodKind = "UPI"
	MethodWallet MethodKind = "WALLET"
)

// IsValid checks if the kind is a known tender type
func (k MethodKind) IsValid() bool {
	switch k {
	case MethodCash, MethodCard, MethodUPI, MethodWallet:
		return true
	}
	return false
}

// String returns the string representation of MethodKind
func (k MethodKind) String() string {
	return string(k)
}

// PaymentMethod is the closed set of tenders: Cash, Card, UPI and Wallet
type PaymentMethod interface {
	Kind() MethodKind
	isPaymentMethod()
}

// Cash carries no metadata
type Cash struct{}

// Card is a card swipe; LastFour is optional
type Card struct {
	CardType string `json:"card_type"`
	LastFour string `json:"last_four,omitempty"`
}

// UPI is a UPI transfer with an optional transaction reference
type UPI struct {
	Reference string `json:"reference,omitempty"`
}

// Wallet is a stored-credit redemption. The portions are filled in on admission.
type Wallet struct {
	PointsPortion valueobject.Money `json:"points_portion"`
	RefundPortion valueobject.Money `json:"refund_portion"`
}

func (Cash) Kind() MethodKind { return MethodCash }
func (Card) Kind() MethodKind { return MethodCard }
func (UPI) Kind() MethodKind { return MethodUPI }
func (Wallet) Kind() MethodKind { return MethodWallet }

func (Cash) isPaymentMethod() {}
func (Card) isPaymentMethod() {}
func (UPI) isPaymentMethod() {}
func (Wallet) isPaymentMethod() {}

// NewPaymentMethod builds a method from loosely typed input, e.g. an HTTP form
func NewPaymentMethod(kind MethodKind, cardType, lastFour, reference string) (PaymentMethod, error) {
	switch kind {
	case MethodCash:
		return Cash{}, nil
	case MethodCard:
		return Card{CardType: strings.TrimSpace(cardType), LastFour: NormalizeLastFour(lastFour)}, nil
	case MethodUPI:
		return UPI{Reference: strings.TrimSpace(reference)}, nil
	case MethodWallet:
		return Wallet{}, nil
	}
	return nil, newDomainError(ErrInvalidPaymentMethod, "Payment method %q is not supported", string(kind))
}

// NormalizeLastFour keeps digits only and truncates to four characters
func NormalizeLastFour(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if b.Len() == 4 {
			break
		}
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PaymentEntry is one admitted tender. It is created only by the engine and never modified.
type PaymentEntry struct {
	ID        uuid.UUID
	Method    PaymentMethod
	Amount    valueobject.Money
	Detail    string
	CreatedAt time.Time
}

// Kind returns the tender kind of the entry
func (e PaymentEntry) Kind() MethodKind {
	return e.Method.Kind()
}

// WalletRedemption returns the points/refund split for wallet entries, zero otherwise
func (e PaymentEntry) WalletRedemption() WalletRedemption {
	w, ok := e.Method.(Wallet)
	if !ok {
		return WalletRedemption{}
	}
	return WalletRedemption{PointsUsed: w.PointsPortion, RefundUsed: w.RefundPortion}
}

// describe builds the human-readable detail shown next to an entry
func describe(method PaymentMethod) string {
	switch m := method.(type) {
	case Card:
		if m.LastFour != "" {
			return m.CardType + " ****" + m.LastFour
		}
		return m.CardType
	case UPI:
		return m.Reference
	case Wallet:
		switch {
		case m.PointsPortion.IsPositive() && m.RefundPortion.IsPositive():
			return m.PointsPortion.String() + " pts + " + m.RefundPortion.Display() + " refund used"
		case m.RefundPortion.IsZero():
			return m.PointsPortion.String() + " pts used"
		default:
			return m.RefundPortion.Display() + " refund used"
		}
	}
	return ""
}
