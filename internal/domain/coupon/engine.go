// internal/domain/coupon/engine.go
package coupon

import (
	"errors"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/cart"
)

// Domain errors
var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon is inactive")
	ErrCouponExpired       = errors.New("coupon is expired or not yet valid")
	ErrCouponNotApplicable = errors.New("coupon is not valid for any product in the cart")
)

// Apply validates a coupon against a cart and attaches the discount
// record. The discount math lives in cart.Recalculate, driven by the
// stored percentage, so applying the same coupon twice yields identical
// totals.
func Apply(c *cart.Cart, coupon *Coupon, now time.Time) error {
	if !coupon.Active {
		return ErrCouponInactive
	}
	if !coupon.InWindow(now) {
		return ErrCouponExpired
	}
	if coupon.ProductID == nil {
		return ErrCouponNotApplicable
	}
	if _, ok := c.Items[*coupon.ProductID]; !ok {
		return ErrCouponNotApplicable
	}

	c.SetCoupon(&cart.AppliedCoupon{
		Code:            coupon.Code,
		DiscountPercent: coupon.Discount,
		ProductID:       *coupon.ProductID,
	})
	return nil
}

// Remove detaches the active coupon from a cart
func Remove(c *cart.Cart) error {
	return c.RemoveCoupon()
}
