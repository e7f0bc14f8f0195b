package services

import (
	"context"
	"log/slog"
	"time"

	"food-marketplace-api/events"
	"food-marketplace-api/logger"

	"gorm.io/gorm"
)

// Deps are the collaborators every service shares
type Deps struct {
	DB        *gorm.DB
	Locks     *KeyLock
	Publisher events.Publisher
	Log       *logger.Logger

	// StoreTimeout bounds store calls made outside a request
	StoreTimeout time.Duration
}

const defaultStoreTimeout = 5 * time.Second

type base struct {
	db           *gorm.DB
	locks        *KeyLock
	publisher    events.Publisher
	log          *logger.Logger
	storeTimeout time.Duration
}

func newBase(d Deps) base {
	if d.Locks == nil {
		d.Locks = NewKeyLock()
	}
	if d.Publisher == nil {
		d.Publisher = events.NoopPublisher{}
	}
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.StoreTimeout <= 0 {
		d.StoreTimeout = defaultStoreTimeout
	}
	return base{db: d.DB, locks: d.Locks, publisher: d.Publisher, log: d.Log, storeTimeout: d.StoreTimeout}
}

// detached keeps ctx values but not its cancellation, for writes that must
// land after the request is gone
func (b *base) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), b.storeTimeout)
}

// publish never fails the caller; broker trouble is logged
func (b *base) publish(ctx context.Context, routingKey string, payload any) {
	if err := b.publisher.Publish(ctx, routingKey, payload); err != nil {
		b.log.Error("event_publish_failed", logger.RequestID(ctx), "failed to publish event", err,
			slog.String("routing_key", routingKey))
	}
}
