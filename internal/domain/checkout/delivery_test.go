package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceipt(t *testing.T) {
	inv := sampleInvoice(t)

	t.Run("refused before confirmation", func(t *testing.T) {
		e := openTestEngine(t, "2395", noWallet())
		_, err := e.Submit(Cash{}, "2395")
		require.NoError(t, err)

		_, err = NewReceipt(inv, e)
		assert.True(t, errors.Is(err, ErrNotConfirmed))
	})

	t.Run("built from confirmed session", func(t *testing.T) {
		e := openTestEngine(t, "2395", noWallet())
		_, err := e.Submit(Cash{}, "1000")
		require.NoError(t, err)
		_, err = e.Submit(Card{CardType: "Visa", LastFour: "1234"}, "1395")
		require.NoError(t, err)
		_, err = e.Confirm()
		require.NoError(t, err)

		r, err := NewReceipt(inv, e)
		require.NoError(t, err)
		assert.Equal(t, e.ID, r.CheckoutID)
		assert.Equal(t, "INV-1001", r.InvoiceID)
		assert.Equal(t, "2350", r.Totals.Subtotal.String())
		assert.Equal(t, "2395", r.Total.String())
		assert.Len(t, r.Entries, 2)
		assert.Len(t, r.Items, 3)
		assert.Equal(t, testNow, r.ConfirmedAt)
	})
}

func TestDeliveryChannel(t *testing.T) {
	assert.True(t, ChannelPrint.IsValid())
	assert.True(t, ChannelWhatsApp.IsValid())
	assert.True(t, ChannelSMS.IsValid())
	assert.False(t, DeliveryChannel("EMAIL").IsValid())

	assert.False(t, ChannelPrint.NeedsDestination())
	assert.True(t, ChannelWhatsApp.NeedsDestination())
	assert.True(t, ChannelSMS.NeedsDestination())
}

func TestDeliveryResult_Delivered(t *testing.T) {
	assert.True(t, DeliveryResult{Channel: ChannelPrint}.Delivered())
	assert.False(t, DeliveryResult{Channel: ChannelSMS, Err: errors.New("gateway down")}.Delivered())
}
