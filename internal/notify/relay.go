package notify

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
)

// Relay states reported by RedisRelay.State.
const (
	RelayIdle       = "idle"
	RelaySubscribed = "subscribed"
	RelayStopped    = "stopped"
)

const (
	stateIdle int32 = iota
	stateSubscribed
	stateStopped
)

// RedisRelay fans events out through a Redis channel so that observers
// connected to any replica receive them. Publish goes to Redis; Run forwards
// everything received on the channel into the local hub.
//
// Local observers never depend on Redis alone: while the relay is not
// subscribed, or when the Redis publish fails, Publish also delivers
// straight into the local hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	ready   chan struct{}
	state   atomic.Int32
}

// NewRedisRelay creates a relay over channel delivering into hub.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, hub: hub, ready: make(chan struct{})}
}

// Publish sends ev to every replica subscribed to the channel, this one
// included. A Redis failure is returned after the local observers have been
// served.
func (r *RedisRelay) Publish(ctx context.Context, ev Event) error {
	frame, err := ev.encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subscribed := r.state.Load() == stateSubscribed
	if err := r.client.Publish(ctx, r.channel, frame).Err(); err != nil {
		n := r.hub.Broadcast(frame)
		logger.Warn("redis publish failed, delivered locally", "channel", r.channel, "observers", n, "err", err)
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	if !subscribed {
		r.hub.Broadcast(frame)
	}
	return nil
}

// Ready is closed once the subscription is confirmed.
func (r *RedisRelay) Ready() <-chan struct{} { return r.ready }

// State reports whether the relay is idle, subscribed or stopped.
func (r *RedisRelay) State() string {
	switch r.state.Load() {
	case stateSubscribed:
		return RelaySubscribed
	case stateStopped:
		return RelayStopped
	}
	return RelayIdle
}

// Run subscribes to the channel and forwards messages to the hub until ctx
// is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	defer r.state.Store(stateStopped)

	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}
	r.state.Store(stateSubscribed)
	close(r.ready)
	logger.Info("notification relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			n := r.hub.Broadcast([]byte(msg.Payload))
			logger.Debug("relayed notification", "observers", n)
		}
	}
}
