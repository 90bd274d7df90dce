package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRelayFansOutAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { c.Close() })
		return c
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two replicas, each with its own hub and relay.
	hubA, hubB := NewHub(4), NewHub(4)
	relayA := NewRedisRelay(newClient(), "mava:test", hubA)
	relayB := NewRedisRelay(newClient(), "mava:test", hubB)
	for _, r := range []*RedisRelay{relayA, relayB} {
		go r.Run(ctx)
		select {
		case <-r.Ready():
		case <-time.After(2 * time.Second):
			t.Fatal("relay did not subscribe")
		}
	}

	obsA, obsB := hubA.Join(), hubB.Join()
	require.NoError(t, relayA.Publish(ctx, Notification("Novo visitante cadastrado: João")))

	for _, o := range []*Observer{obsA, obsB} {
		select {
		case frame := <-o.C():
			var ev Event
			require.NoError(t, json.Unmarshal(frame, &ev))
			assert.Equal(t, "Novo visitante cadastrado: João", ev.Data.Message)
		case <-time.After(2 * time.Second):
			t.Fatal("observer did not receive relayed event")
		}
	}
}

func TestRedisRelayPublishError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	relay := NewRedisRelay(client, "mava:test", NewHub(1))
	err := relay.Publish(context.Background(), Notification("x"))
	assert.Error(t, err)
}

func receiveMessage(t *testing.T, o *Observer) string {
	t.Helper()
	select {
	case frame := <-o.C():
		var ev Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		return ev.Data.Message
	case <-time.After(2 * time.Second):
		t.Fatal("observer received nothing")
		return ""
	}
}

func TestRedisRelayDeliversLocallyWhenNotSubscribed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewHub(4)
	relay := NewRedisRelay(client, "mava:test", hub)
	obs := hub.Join()

	assert.Equal(t, RelayIdle, relay.State())
	require.NoError(t, relay.Publish(context.Background(), Notification("sem assinatura")))
	assert.Equal(t, "sem assinatura", receiveMessage(t, obs))
}

func TestRedisRelayDeliversLocallyWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(4)
	relay := NewRedisRelay(client, "mava:test", hub)
	go relay.Run(ctx)
	select {
	case <-relay.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not subscribe")
	}
	assert.Equal(t, RelaySubscribed, relay.State())

	obs := hub.Join()
	require.NoError(t, relay.Publish(ctx, Notification("via redis")))
	assert.Equal(t, "via redis", receiveMessage(t, obs))

	mr.Close()
	err := relay.Publish(ctx, Notification("redis fora"))
	assert.Error(t, err)
	assert.Equal(t, "redis fora", receiveMessage(t, obs))
}

func TestRedisRelayStoppedAfterSubscribeFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	relay := NewRedisRelay(client, "mava:test", NewHub(1))
	assert.Error(t, relay.Run(context.Background()))
	assert.Equal(t, RelayStopped, relay.State())
}
