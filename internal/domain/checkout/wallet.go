package checkout

import (
	"github.com/erp/checkout/internal/domain/shared/valueobject"
)

// WalletBalance is a read-only snapshot of a customer's stored credit.
// Total is expected to equal RewardPoints + RefundBalance.
type WalletBalance struct {
	Total         valueobject.Money `json:"total"`
	RewardPoints  valueobject.Money `json:"reward_points"`
	RefundBalance valueobject.Money `json:"refund_balance"`
}

// NewWalletBalance builds a snapshot whose total is derived from its parts
func NewWalletBalance(rewardPoints, refundBalance valueobject.Money) WalletBalance {
	return WalletBalance{
		Total:         rewardPoints.Add(refundBalance),
		RewardPoints:  rewardPoints,
		RefundBalance: refundBalance,
	}
}

// Validate rejects snapshots whose total disagrees with its components
func (w WalletBalance) Validate() error {
	if !w.Total.Equals(w.RewardPoints.Add(w.RefundBalance)) {
		return newDomainError(ErrInvalidWalletBalance,
			"Wallet total %s does not equal reward points %s plus refund balance %s",
			w.Total, w.RewardPoints, w.RefundBalance)
	}
	return nil
}

// IsEmpty returns true if there is no credit to redeem
func (w WalletBalance) IsEmpty() bool {
	return w.Total.IsZero()
}

// WalletRedemption is the split of a wallet payment into its sources
type WalletRedemption struct {
	PointsUsed valueobject.Money `json:"points_used"`
	RefundUsed valueobject.Money `json:"refund_used"`
}

// Total returns the redeemed amount
func (r WalletRedemption) Total() valueobject.Money {
	return r.PointsUsed.Add(r.RefundUsed)
}

// Decompose splits amount into points first, refund balance second.
// The caller is responsible for the ceiling check against Total.
func (w WalletBalance) Decompose(amount valueobject.Money) WalletRedemption {
	points := valueobject.MinMoney(amount, w.RewardPoints)
	return WalletRedemption{
		PointsUsed: points,
		RefundUsed: amount.Sub(points),
	}
}

// SuggestWallet returns min(total, remaining)
func (w WalletBalance) SuggestWallet(remaining valueobject.Money) valueobject.Money {
	return valueobject.MinMoney(w.Total, remaining)
}

// SuggestPoints returns min(rewardPoints, remaining)
func (w WalletBalance) SuggestPoints(remaining valueobject.Money) valueobject.Money {
	return valueobject.MinMoney(w.RewardPoints, remaining)
}

// SuggestRefund returns min(refundBalance, remaining)
func (w WalletBalance) SuggestRefund(remaining valueobject.Money) valueobject.Money {
	return valueobject.MinMoney(w.RefundBalance, remaining)
}

// without returns the balance left after the given redemptions are taken out
func (w WalletBalance) without(used WalletRedemption) WalletBalance {
	points := w.RewardPoints.Sub(used.PointsUsed)
	refund := w.RefundBalance.Sub(used.RefundUsed)
	return WalletBalance{
		Total:         w.Total.Sub(used.Total()),
		RewardPoints:  points,
		RefundBalance: refund,
	}
}
