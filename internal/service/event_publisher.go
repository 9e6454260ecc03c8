package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/model"
)

// EventPublisher receives study group events after the change is stored.
type EventPublisher interface {
	Publish(ctx context.Context, event model.GroupEvent) error
}

// NopEventPublisher drops every event.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(context.Context, model.GroupEvent) error { return nil }

// RedisEventPublisher queues events for the persistence worker and fans them out
// to the group's activity channel in a single round trip.
type RedisEventPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisEventPublisher creates a RedisEventPublisher.
func NewRedisEventPublisher(rdb *redis.Client, log zerolog.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		rdb: rdb,
		log: log.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event model.GroupEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, config.WorkerKey.PersistGroupEventsQueue, payload)
		pipe.Publish(ctx, config.CacheKey.GroupActivityChannel(event.GroupID), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	p.log.Debug().
		Str("event", string(event.Type)).
		Int("group_id", event.GroupID).
		Msg("Event published")
	return nil
}
