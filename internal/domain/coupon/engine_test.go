package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/cart"
)

func testCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	unit, err := decimal.NewFromString("100.00")
	require.NoError(t, err)
	c.AddItem(1, "Headphones", unit, 1)
	return c
}

func testCoupon() *Coupon {
	productID := uint(1)
	now := time.Now().UTC()
	return &Coupon{
		MerchantID: 7,
		ProductID:  &productID,
		Code:       "TENOFF",
		ValidFrom:  now.Add(-time.Hour),
		ValidTo:    now.Add(time.Hour),
		Discount:   10,
		Active:     true,
	}
}

func TestApplyDiscountsCart(t *testing.T) {
	c := testCart(t)
	now := time.Now().UTC()

	require.NoError(t, Apply(c, testCoupon(), now))

	require.NotNil(t, c.Coupon)
	assert.Equal(t, "TENOFF", c.Coupon.Code)
	assert.Equal(t, "90", c.Coupon.DiscountedPrice.String())
	assert.Equal(t, "10", c.Coupon.AmountSaved.String())
	assert.Equal(t, "90", c.TotalCartPrice.String())
}

func TestApplyTwiceYieldsSameTotal(t *testing.T) {
	c := testCart(t)
	now := time.Now().UTC()

	require.NoError(t, Apply(c, testCoupon(), now))
	first := c.TotalCartPrice
	require.NoError(t, Apply(c, testCoupon(), now))

	assert.True(t, c.TotalCartPrice.Equal(first))
}

func TestApplyInactiveCoupon(t *testing.T) {
	c := testCart(t)
	inactive := testCoupon()
	inactive.Active = false

	assert.ErrorIs(t, Apply(c, inactive, time.Now().UTC()), ErrCouponInactive)
	assert.Nil(t, c.Coupon)
}

func TestApplyOutsideWindow(t *testing.T) {
	now := time.Now().UTC()

	expired := testCoupon()
	expired.ValidTo = now.Add(-time.Minute)
	assert.ErrorIs(t, Apply(testCart(t), expired, now), ErrCouponExpired)

	early := testCoupon()
	early.ValidFrom = now.Add(time.Minute)
	assert.ErrorIs(t, Apply(testCart(t), early, now), ErrCouponExpired)
}

func TestApplyProductNotInCart(t *testing.T) {
	c := testCart(t)
	other := testCoupon()
	otherProduct := uint(42)
	other.ProductID = &otherProduct

	assert.ErrorIs(t, Apply(c, other, time.Now().UTC()), ErrCouponNotApplicable)

	unscoped := testCoupon()
	unscoped.ProductID = nil
	assert.ErrorIs(t, Apply(c, unscoped, time.Now().UTC()), ErrCouponNotApplicable)
}

func TestRemoveWithoutCoupon(t *testing.T) {
	assert.ErrorIs(t, Remove(testCart(t)), cart.ErrNoCouponApplied)
}

func TestInWindowInclusiveBounds(t *testing.T) {
	coupon := testCoupon()
	assert.True(t, coupon.InWindow(coupon.ValidFrom))
	assert.True(t, coupon.InWindow(coupon.ValidTo))
	assert.False(t, coupon.InWindow(coupon.ValidTo.Add(time.Nanosecond)))
}
