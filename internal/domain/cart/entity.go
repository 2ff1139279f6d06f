// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrNotInCart       = errors.New("product not found in cart")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrNoCouponApplied = errors.New("no coupon applied")
)

// Line represents a single product entry in a cart
type Line struct {
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// AppliedCoupon records a discount applied to one cart line
type AppliedCoupon struct {
	Code            string          `json:"code"`
	DiscountPercent int             `json:"discount_percent"`
	ProductID       uint            `json:"product_id"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	AmountSaved     decimal.Decimal `json:"amount_saved"`
}

// Cart is the per-user shopping cart kept in the expiring cache
type Cart struct {
	Items          map[uint]Line   `json:"items"`
	Coupon         *AppliedCoupon  `json:"coupon,omitempty"`
	TotalCartPrice decimal.Decimal `json:"total_cart_price"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// New returns an empty cart
func New() *Cart {
	return &Cart{
		Items:          make(map[uint]Line),
		TotalCartPrice: decimal.Zero,
	}
}

// IsEmpty reports whether the cart has no line items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the current quantity for a product, zero if absent
func (c *Cart) Quantity(productID uint) int {
	return c.Items[productID].Quantity
}

// AddItem merges qty into an existing line or creates a new one.
// Line totals are derived from the unit price, never accumulated.
func (c *Cart) AddItem(productID uint, name string, unitPrice decimal.Decimal, qty int) {
	line := c.Items[productID]
	line.Name = name
	line.UnitPrice = unitPrice
	line.Quantity += qty
	line.TotalPrice = unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	c.Items[productID] = line
	c.Recalculate()
}

// SetQuantity replaces the quantity of an existing line
func (c *Cart) SetQuantity(productID uint, qty int) error {
	line, ok := c.Items[productID]
	if !ok {
		return ErrNotInCart
	}
	line.Quantity = qty
	line.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	c.Items[productID] = line
	c.Recalculate()
	return nil
}

// RemoveItem deletes a line from the cart
func (c *Cart) RemoveItem(productID uint) error {
	if _, ok := c.Items[productID]; !ok {
		return ErrNotInCart
	}
	delete(c.Items, productID)
	c.Recalculate()
	return nil
}

// SetCoupon attaches a coupon record and recomputes totals
func (c *Cart) SetCoupon(coupon *AppliedCoupon) {
	c.Coupon = coupon
	c.Recalculate()
}

// RemoveCoupon detaches the active coupon
func (c *Cart) RemoveCoupon() error {
	if c.Coupon == nil {
		return ErrNoCouponApplied
	}
	c.Coupon = nil
	c.Recalculate()
	return nil
}

// Recalculate rebuilds the derived pricing fields from the line items.
// The coupon discount is recomputed from its stored percentage against
// the current line total, so totals stay consistent after any sequence
// of add/update/remove. Line discounts round half-up to 2 places; the
// cart total is summed unrounded and rounded once at the end.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, line := range c.Items {
		total = total.Add(line.TotalPrice)
	}

	if c.Coupon != nil {
		line, ok := c.Items[c.Coupon.ProductID]
		if !ok {
			// Couponed product left the cart; the discount goes with it.
			c.Coupon = nil
		} else {
			factor := decimal.NewFromInt(int64(100 - c.Coupon.DiscountPercent)).
				Div(decimal.NewFromInt(100))
			discounted := line.TotalPrice.Mul(factor).Round(2)
			c.Coupon.DiscountedPrice = discounted
			c.Coupon.AmountSaved = line.TotalPrice.Sub(discounted)
			total = total.Sub(c.Coupon.AmountSaved)
		}
	}

	c.TotalCartPrice = total.Round(2)
}
