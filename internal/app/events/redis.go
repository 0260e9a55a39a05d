package events

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// channelPrefix namespaces the Redis channels the publisher writes to.
const channelPrefix = "basereview.events."

// RedisPublisher forwards every bus event to a Redis channel so external
// collaborators can observe ledger facts without polling the query surface.
type RedisPublisher struct {
	bus         *Bus
	client      *redis.Client
	log         *logger.Logger
	unsubscribe func()
}

// NewRedisPublisher builds a publisher for the given bus and Redis address.
func NewRedisPublisher(bus *Bus, addr, password string, db int, log *logger.Logger) *RedisPublisher {
	if log == nil {
		log = logger.NewDefault("events-redis")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	return &RedisPublisher{bus: bus, client: client, log: log}
}

// Name implements system.Service.
func (p *RedisPublisher) Name() string { return "redis-event-publisher" }

// Start verifies connectivity and begins forwarding events.
func (p *RedisPublisher) Start(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return err
	}
	p.unsubscribe = p.bus.SubscribeAll(func(ctx context.Context, ev Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			p.log.WithError(err).Warn("marshal event")
			return
		}
		if err := p.client.Publish(ctx, channelPrefix+string(ev.Topic), payload).Err(); err != nil {
			p.log.WithError(err).Warnf("publish %s", ev.Topic)
		}
	})
	p.log.Info("redis event publisher started")
	return nil
}

// Stop detaches from the bus and closes the client.
func (p *RedisPublisher) Stop(context.Context) error {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
	return p.client.Close()
}
