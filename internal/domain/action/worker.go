// internal/domain/action/worker.go
package action

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
)

// deadLetterKey holds messages that exhausted their retries
const deadLetterKey = "actions:dead"

// Worker drains the action queue into the database. Each message gets a
// bounded number of insert attempts with a fixed delay between them;
// messages that still fail move to a dead-letter list instead of
// blocking the queue.
type Worker struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	logger      *logrus.Logger
}

// NewWorker creates a new action worker
func NewWorker(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *Worker {
	return &Worker{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		logger:      logger,
	}
}

// Run consumes the queue until the context is cancelled
func (w *Worker) Run(ctx context.Context) {
	w.logger.WithField("queue", w.config.Actions.QueueKey).Info("Action worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Action worker stopped")
			return
		default:
		}

		res, err := w.redisClient.BRPop(ctx, w.config.Actions.PopTimeout, w.config.Actions.QueueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Action worker stopped")
				return
			}
			w.logger.WithError(err).Error("failed to pop action message")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		// BRPop returns [key, value]
		if len(res) != 2 {
			continue
		}
		w.process(ctx, []byte(res[1]))
	}
}

// process persists one message, retrying transient failures
func (w *Worker) process(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.logger.WithError(err).Error("discarding malformed action message")
		return
	}

	record := UserAction{
		UserID:    msg.UserID,
		Action:    msg.Action,
		ProductID: msg.ProductID,
		SessionID: msg.SessionID,
		Metadata:  msg.Metadata,
		CreatedAt: msg.Occurred,
	}

	var lastErr error
	for attempt := 1; attempt <= w.config.Actions.MaxRetries; attempt++ {
		if lastErr = w.db.WithContext(ctx).Create(&record).Error; lastErr == nil {
			return
		}
		w.logger.WithFields(logrus.Fields{
			"user_id": msg.UserID,
			"action":  msg.Action,
			"attempt": attempt,
		}).WithError(lastErr).Warn("failed to persist action")
		select {
		case <-ctx.Done():
			w.deadLetter(raw)
			return
		case <-time.After(w.config.Actions.RetryDelay):
		}
	}
	w.deadLetter(raw)
	w.logger.WithError(lastErr).Error("action moved to dead-letter queue")
}

// deadLetter parks an unprocessable message for later inspection
func (w *Worker) deadLetter(raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.redisClient.LPush(ctx, deadLetterKey, raw).Err(); err != nil {
		w.logger.WithError(err).Error("failed to park action in dead-letter queue")
	}
}
