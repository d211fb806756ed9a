package syncapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/models"
	"github.com/mmdatafocus/bizbooks_backend/offlinesync"
	"gorm.io/gorm"
)

// BuildService wires the sync service from env configuration:
// SYNC_STORE_DRIVER picks gorm or in-memory stores, SYNC_PASS_LOCK adds the
// redislock pass lock and SYNC_EVENTS_ENABLED publishes events to Pub/Sub.
func BuildService(db *gorm.DB) *offlinesync.Service {
	if config.SyncStoreDriver() == config.SyncStoreMemory {
		queue, stores := memoryStores(time.Now)
		return newService(queue, stores)
	}
	return BuildGormService(db)
}

// BuildGormService always uses the MySQL-backed stores.
func BuildGormService(db *gorm.DB) *offlinesync.Service {
	return newService(models.NewGormQueueStore(db), models.NewGormEntityStores(db))
}

func newService(queue offlinesync.QueueStore, stores offlinesync.EntityStores) *offlinesync.Service {
	opts := []offlinesync.Option{
		offlinesync.WithLogger(config.GetLogger()),
		offlinesync.WithMaxBatch(config.SyncBatchMaxOperations()),
	}
	if config.SyncPassLockEnabled() {
		opts = append(opts, offlinesync.WithPassLocker(RedisPassLocker{}, config.SyncPassLockTTL()))
	}
	if config.SyncEventsEnabled() {
		opts = append(opts, offlinesync.WithEventPublisher(NewPubSubPublisher(config.SyncEventsTopic())))
	}
	return offlinesync.NewService(queue, offlinesync.NewExecutor(stores, nil), opts...)
}

func memoryStores(now func() time.Time) (offlinesync.QueueStore, offlinesync.EntityStores) {
	return offlinesync.NewMemoryQueueStore(now), offlinesync.EntityStores{
		Bills:     offlinesync.NewMemoryEntityStore(now),
		Customers: offlinesync.NewMemoryEntityStore(now),
		Products:  offlinesync.NewMemoryEntityStore(now),
		Payments:  offlinesync.NewMemoryEntityStore(now),
	}
}

// RedisPassLocker backs the pass lock with config.ObtainLock.
type RedisPassLocker struct{}

func (RedisPassLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := config.ObtainLock(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, offlinesync.ErrSyncInProgress
		}
		return nil, err
	}
	return func() {
		// Released with a fresh context: the pass may have outlived the request.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.GetLogger().WithField("key", key).Warn("release sync pass lock: " + err.Error())
		}
	}, nil
}

type publishFunc func(ctx context.Context, topic string, obj interface{}, attrs map[string]string) (string, error)

// NewPubSubPublisher publishes sync events as JSON messages with
// event_type, user_id and company_id attributes for subscription filters.
func NewPubSubPublisher(topic string) offlinesync.EventPublisher {
	return pubSubPublisher(topic, config.PublishJSON)
}

func pubSubPublisher(topic string, publish publishFunc) offlinesync.EventPublisher {
	return offlinesync.EventPublisherFunc(func(ctx context.Context, evt offlinesync.Event) error {
		_, err := publish(ctx, topic, evt, map[string]string{
			"event_type": evt.Type,
			"user_id":    strconv.Itoa(evt.UserId),
			"company_id": evt.CompanyId,
		})
		return err
	})
}
