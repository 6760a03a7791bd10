package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type envelope struct {
	Instance string `json:"instance"`
	Event    Event  `json:"event"`
}

// RedisBridge mirrors hub events through a Redis pub/sub channel so every
// server instance sees every commit.
type RedisBridge struct {
	client   *redis.Client
	channel  string
	instance string
	hub      *Hub
	log      *logrus.Logger
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, log *logrus.Logger) *RedisBridge {
	b := &RedisBridge{
		client:   client,
		channel:  channel,
		instance: uuid.NewString(),
		hub:      hub,
		log:      log,
	}
	hub.SetForwarder(b)
	return b
}

func (b *RedisBridge) Forward(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(envelope{Instance: b.instance, Event: ev})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run receives events published by other instances and delivers them locally
// until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.WithField("channel", b.channel).Info("listening for change events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.log.WithError(err).Warn("discarding malformed change event")
		return
	}
	if env.Instance == b.instance {
		return
	}
	b.hub.Deliver(env.Event)
}

var _ Forwarder = (*RedisBridge)(nil)
