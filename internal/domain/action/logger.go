// internal/domain/action/logger.go
package action

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// Logger enqueues user actions onto a Redis list for asynchronous
// persistence. Enqueue failures are logged and swallowed: losing an
// analytics event must never fail the request that produced it.
type Logger struct {
	redisClient *redis.Client
	config      *config.Config
	logger      *logrus.Logger
}

// NewLogger creates a new action logger
func NewLogger(redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Logger {
	return &Logger{
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
	}
}

// Record pushes one action message onto the queue
func (l *Logger) Record(msg *Message) {
	if msg.Occurred.IsZero() {
		msg.Occurred = time.Now().UTC()
	}
	if !IsValidType(msg.Action) {
		l.logger.WithField("action", msg.Action).Warn("dropping action with unknown type")
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		l.logger.WithError(err).Error("failed to encode action message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.redisClient.LPush(ctx, l.config.Actions.QueueKey, data).Err(); err != nil {
		l.logger.WithFields(logrus.Fields{
			"user_id": msg.UserID,
			"action":  msg.Action,
		}).WithError(err).Error("failed to enqueue action")
		return
	}
	metrics.ActionsEnqueued.WithLabelValues(string(msg.Action)).Inc()
}

// RecordView records a product detail view
func (l *Logger) RecordView(userID, productID uint, sessionID string) {
	l.Record(&Message{UserID: userID, Action: TypeView, ProductID: &productID, SessionID: sessionID})
}

// RecordAddToCart records an add-to-cart event
func (l *Logger) RecordAddToCart(userID, productID uint, sessionID string) {
	l.Record(&Message{UserID: userID, Action: TypeAddToCart, ProductID: &productID, SessionID: sessionID})
}

// RecordPurchase records a purchase event for one order item
func (l *Logger) RecordPurchase(userID, productID uint, orderID string) {
	meta, _ := json.Marshal(map[string]string{"order_id": orderID})
	l.Record(&Message{UserID: userID, Action: TypePurchase, ProductID: &productID, Metadata: string(meta)})
}

// RecordSearch records a catalog search with its query
func (l *Logger) RecordSearch(userID uint, query, sessionID string) {
	meta, _ := json.Marshal(map[string]string{"query": query})
	l.Record(&Message{UserID: userID, Action: TypeSearch, SessionID: sessionID, Metadata: string(meta)})
}

// RecordClick records a recommendation click-through
func (l *Logger) RecordClick(userID, productID uint, sessionID string) {
	l.Record(&Message{UserID: userID, Action: TypeClick, ProductID: &productID, SessionID: sessionID})
}

// RecordNotInterested records negative feedback on a recommendation
func (l *Logger) RecordNotInterested(userID, productID uint, sessionID string) {
	l.Record(&Message{UserID: userID, Action: TypeNotInterested, ProductID: &productID, SessionID: sessionID})
}

// QueueDepth returns the number of pending messages, for health reporting
func (l *Logger) QueueDepth(ctx context.Context) (int64, error) {
	depth, err := l.redisClient.LLen(ctx, l.config.Actions.QueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return depth, nil
}
