package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/outofforest/logger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber reads a stream through a consumer group and ACKs every message
// the handler accepts. Failed messages stay pending and are redelivered.
type Subscriber struct {
	client        redis.Cmdable
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
}

func NewSubscriber(client redis.Cmdable, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
	}
}

// Run consumes the stream until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	log := logger.Get(ctx).With(zap.String("stream", s.stream), zap.String("group", s.group))

	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return errors.Wrap(err, "failed to create consumer group")
	}

	log.Info("Subscriber started", zap.String("consumer", s.consumer))

	for {
		select {
		case <-ctx.Done():
			log.Info("Subscriber stopping")
			return errors.WithStack(ctx.Err())
		default:
		}

		if err := s.readMessages(ctx); err != nil {
			if ctx.Err() != nil {
				return errors.WithStack(ctx.Err())
			}
			log.Error("Error reading messages", zap.Error(err))
			select {
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Subscriber) readMessages(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read from stream")
	}

	log := logger.Get(ctx)
	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.processMessage(ctx, message); err != nil {
				log.Error("Failed to process message", zap.String("id", message.ID), zap.Error(err))
				continue
			}

			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				log.Error("Failed to ACK message", zap.String("id", message.ID), zap.Error(err))
			}
		}
	}

	return nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return errors.New("invalid message format")
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return errors.Wrap(err, "failed to unmarshal event")
	}

	return s.handler(ctx, event)
}
