// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/inventory"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Inventory is the stock collaborator the cart depends on
type Inventory interface {
	Reserve(ctx context.Context, productID uint, qty int, refType, refID string) error
	Release(ctx context.Context, productID uint, qty int, refType, refID string) error
}

// ErrLockTimeout is returned when another request holds the cart lock for too long
var ErrLockTimeout = errors.New("timed out waiting for cart lock")

// unlockScript releases a lock only if the caller still owns it
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// Store keeps per-user carts in Redis under cart_{userID} with a sliding
// TTL. Every mutation runs under a per-user lock so concurrent requests
// from the same user cannot lose updates.
type Store struct {
	redisClient *redis.Client
	inv         Inventory
	config      *config.Config
	logger      *logrus.Logger
}

// NewStore creates a new cart store
func NewStore(redisClient *redis.Client, inv Inventory, cfg *config.Config, logger *logrus.Logger) *Store {
	return &Store{
		redisClient: redisClient,
		inv:         inv,
		config:      cfg,
		logger:      logger,
	}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart_%d", userID)
}

func lockKey(userID uint) string {
	return fmt.Sprintf("cart_lock_%d", userID)
}

// Get retrieves the cart for a user, returning an empty cart when absent
// or expired.
func (s *Store) Get(ctx context.Context, userID uint) (*Cart, error) {
	data, err := s.redisClient.Get(ctx, cartKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = make(map[uint]Line)
	}
	return &c, nil
}

// Add reserves stock for a product and merges it into the cart. On a
// failed reservation the cart is left untouched; on a failed save the
// reservation is returned to inventory.
func (s *Store) Add(ctx context.Context, userID uint, prod *product.Product, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	unlock, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.inv.Reserve(ctx, prod.ID, qty, "cart", strconv.FormatUint(uint64(userID), 10)); err != nil {
		return nil, err
	}

	c.AddItem(prod.ID, prod.Name, prod.Price, qty)

	if err := s.save(ctx, userID, c); err != nil {
		s.compensate(prod.ID, qty, userID)
		return nil, err
	}
	return c, nil
}

// Update sets a line to a new quantity, reserving or releasing the delta
// against inventory. The cart is unchanged when reserving the delta fails.
func (s *Store) Update(ctx context.Context, userID uint, prod *product.Product, newQty int) (*Cart, error) {
	if newQty <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", newQty)
	}

	unlock, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	current := c.Quantity(prod.ID)
	if current == 0 {
		return nil, ErrNotInCart
	}

	ref := strconv.FormatUint(uint64(userID), 10)
	delta := newQty - current
	if delta > 0 {
		if err := s.inv.Reserve(ctx, prod.ID, delta, "cart", ref); err != nil {
			return nil, err
		}
	} else if delta < 0 {
		if err := s.inv.Release(ctx, prod.ID, -delta, "cart", ref); err != nil {
			return nil, err
		}
	}

	if err := c.SetQuantity(prod.ID, newQty); err != nil {
		return nil, err
	}

	if err := s.save(ctx, userID, c); err != nil {
		if delta > 0 {
			s.compensate(prod.ID, delta, userID)
		}
		return nil, err
	}
	return c, nil
}

// Remove deletes a line from the cart. The reservation stays with the
// cart until checkout or an unpaid clear, so no stock is released here.
func (s *Store) Remove(ctx context.Context, userID uint, productID uint) (*Cart, error) {
	unlock, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear destroys the cart. With paid=false every reserved line quantity
// is released back to inventory first, so abandoned carts never leak
// stock; with paid=true the order owns the reservation and nothing is
// released.
func (s *Store) Clear(ctx context.Context, userID uint, paid bool) error {
	unlock, err := s.acquireLock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	if !paid {
		c, err := s.Get(ctx, userID)
		if err != nil {
			return err
		}
		ref := strconv.FormatUint(uint64(userID), 10)
		for productID, line := range c.Items {
			if err := s.inv.Release(ctx, productID, line.Quantity, "cart", ref); err != nil {
				return fmt.Errorf("failed to release stock for product %d: %w", productID, err)
			}
		}
	}

	if err := s.redisClient.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Mutate runs fn against the locked cart and persists the result. It is
// the hook for collaborators (coupon application) that edit cart state
// without touching inventory.
func (s *Store) Mutate(ctx context.Context, userID uint, fn func(*Cart) error) (*Cart, error) {
	unlock, err := s.acquireLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.Recalculate()
	if err := s.save(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// save persists the cart and resets its TTL
func (s *Store) save(ctx context.Context, userID uint, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.redisClient.Set(ctx, cartKey(userID), data, s.config.Cart.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// compensate returns a reservation after a failed cart save. Runs on a
// fresh context because the request context may already be cancelled.
func (s *Store) compensate(productID uint, qty int, userID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ref := strconv.FormatUint(uint64(userID), 10)
	if err := s.inv.Release(ctx, productID, qty, "cart", ref); err != nil {
		s.logger.WithFields(logrus.Fields{
			"product_id": productID,
			"quantity":   qty,
			"user_id":    userID,
		}).WithError(err).Error("failed to release stock after cart save failure")
	}
}

// acquireLock takes the per-user cart lock, retrying until the configured
// timeout elapses.
func (s *Store) acquireLock(ctx context.Context, userID uint) (func(), error) {
	key := lockKey(userID)
	token := uuid.New().String()
	deadline := time.Now().Add(s.config.Cart.LockTimeout)

	for {
		ok, err := s.redisClient.SetNX(ctx, key, token, s.config.Cart.LockTimeout).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire cart lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, s.redisClient, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			s.logger.WithField("user_id", userID).WithError(err).Warn("failed to release cart lock")
		}
	}
	return unlock, nil
}

// ensure the concrete inventory service satisfies the collaborator contract
var _ Inventory = (*inventory.Service)(nil)
