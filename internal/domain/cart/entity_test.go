package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAddItemMergesQuantities(t *testing.T) {
	c := New()
	c.AddItem(1, "Keyboard", price("89.50"), 1)
	c.AddItem(1, "Keyboard", price("89.50"), 2)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Quantity(1))
	assert.True(t, c.Items[1].TotalPrice.Equal(price("268.50")))
	assert.True(t, c.TotalCartPrice.Equal(price("268.50")))
}

func TestTotalStaysConsistentAcrossMutations(t *testing.T) {
	c := New()
	c.AddItem(1, "Keyboard", price("89.50"), 2)
	c.AddItem(2, "Headphones", price("129.99"), 1)

	require.NoError(t, c.SetQuantity(1, 1))
	assert.True(t, c.TotalCartPrice.Equal(price("219.49")), "got %s", c.TotalCartPrice)

	require.NoError(t, c.RemoveItem(2))
	assert.True(t, c.TotalCartPrice.Equal(price("89.50")))

	require.NoError(t, c.RemoveItem(1))
	assert.True(t, c.IsEmpty())
	assert.True(t, c.TotalCartPrice.IsZero())
}

func TestSetQuantityUnknownProduct(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.SetQuantity(99, 2), ErrNotInCart)
	assert.ErrorIs(t, c.RemoveItem(99), ErrNotInCart)
}

func TestCouponDiscountsOnlyItsProduct(t *testing.T) {
	c := New()
	c.AddItem(1, "Headphones", price("100.00"), 1)
	c.AddItem(2, "Book", price("42.00"), 1)

	c.SetCoupon(&AppliedCoupon{Code: "TEN", DiscountPercent: 10, ProductID: 1})

	require.NotNil(t, c.Coupon)
	assert.True(t, c.Coupon.DiscountedPrice.Equal(price("90.00")))
	assert.True(t, c.Coupon.AmountSaved.Equal(price("10.00")))
	assert.True(t, c.TotalCartPrice.Equal(price("132.00")))
}

func TestCouponRecomputedAfterQuantityChange(t *testing.T) {
	c := New()
	c.AddItem(1, "Headphones", price("100.00"), 1)
	c.SetCoupon(&AppliedCoupon{Code: "TEN", DiscountPercent: 10, ProductID: 1})

	require.NoError(t, c.SetQuantity(1, 3))

	assert.True(t, c.Coupon.DiscountedPrice.Equal(price("270.00")))
	assert.True(t, c.Coupon.AmountSaved.Equal(price("30.00")))
	assert.True(t, c.TotalCartPrice.Equal(price("270.00")))
}

func TestCouponReapplyIsIdempotent(t *testing.T) {
	c := New()
	c.AddItem(1, "Headphones", price("100.00"), 1)

	coupon := &AppliedCoupon{Code: "TEN", DiscountPercent: 10, ProductID: 1}
	c.SetCoupon(coupon)
	first := c.TotalCartPrice

	c.SetCoupon(&AppliedCoupon{Code: "TEN", DiscountPercent: 10, ProductID: 1})
	assert.True(t, c.TotalCartPrice.Equal(first))
	assert.True(t, c.Coupon.AmountSaved.Equal(price("10.00")))
}

func TestCouponDroppedWhenProductRemoved(t *testing.T) {
	c := New()
	c.AddItem(1, "Headphones", price("100.00"), 1)
	c.AddItem(2, "Book", price("42.00"), 1)
	c.SetCoupon(&AppliedCoupon{Code: "TEN", DiscountPercent: 10, ProductID: 1})

	require.NoError(t, c.RemoveItem(1))

	assert.Nil(t, c.Coupon)
	assert.True(t, c.TotalCartPrice.Equal(price("42.00")))
}

func TestDiscountRoundingHalfUp(t *testing.T) {
	c := New()
	// 3 x 9.99 = 29.97; 15% off leaves 25.4745 which rounds to 25.47
	c.AddItem(1, "Widget", price("9.99"), 3)
	c.SetCoupon(&AppliedCoupon{Code: "FIFTEEN", DiscountPercent: 15, ProductID: 1})

	assert.True(t, c.Coupon.DiscountedPrice.Equal(price("25.47")), "got %s", c.Coupon.DiscountedPrice)
	assert.True(t, c.TotalCartPrice.Equal(price("25.47")))
}

func TestRemoveCouponWithoutOne(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.RemoveCoupon(), ErrNoCouponApplied)
}
