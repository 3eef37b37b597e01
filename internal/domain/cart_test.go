package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartFingerprintDeterministic(t *testing.T) {
	cart := NewCart("alice")
	cart.Items[2] = CartItem{Quantity: 1, Price: decimal.New(500, -2), Name: "Hat"}
	cart.Items[1] = CartItem{Quantity: 3, Price: decimal.New(1999, -2), Name: "Scarf"}

	assert.Equal(t, cart.Fingerprint(), cart.Fingerprint())
}

func TestCartFingerprintSensitiveToContent(t *testing.T) {
	cart := NewCart("alice")
	cart.Items[1] = CartItem{Quantity: 1, Price: decimal.New(1999, -2), Name: "Scarf"}
	base := cart.Fingerprint()

	cart.Items[1] = CartItem{Quantity: 2, Price: decimal.New(1999, -2), Name: "Scarf"}
	assert.NotEqual(t, base, cart.Fingerprint())

	other := NewCart("bob")
	other.CreatedAt = cart.CreatedAt
	other.Items[1] = CartItem{Quantity: 2, Price: decimal.New(1999, -2), Name: "Scarf"}
	assert.NotEqual(t, cart.Fingerprint(), other.Fingerprint())
}

func TestCartSortedProductIDs(t *testing.T) {
	cart := NewCart("alice")
	cart.Items[7] = CartItem{Quantity: 1}
	cart.Items[2] = CartItem{Quantity: 1}
	cart.Items[5] = CartItem{Quantity: 1}

	assert.Equal(t, []int64{2, 5, 7}, cart.SortedProductIDs())
}

func TestCartIsEmpty(t *testing.T) {
	var nilCart *Cart
	assert.True(t, nilCart.IsEmpty())
	assert.True(t, NewCart("alice").IsEmpty())

	cart := NewCart("alice")
	cart.Items[1] = CartItem{Quantity: 1}
	assert.False(t, cart.IsEmpty())
}

func TestNewOrderIDStableForSameCart(t *testing.T) {
	cart := NewCart("alice")
	cart.Items[1] = CartItem{Quantity: 2}

	first := NewOrderID("alice", cart.Fingerprint())
	second := NewOrderID("alice", cart.Fingerprint())

	require.Equal(t, first, second)
	assert.Equal(t, "order_alice_"+cart.Fingerprint()[:16], first)
}
