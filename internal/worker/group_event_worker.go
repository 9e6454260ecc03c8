package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/model"
)

const requeueTimeout = 5 * time.Second

// EventStore persists decoded group events.
type EventStore interface {
	Append(ctx context.Context, e *model.GroupEvent) error
}

// GroupEventWorker consumes persist_group_events_queue and appends each event to PostgreSQL.
type GroupEventWorker struct {
	events     EventStore
	rdb        *redis.Client
	log        zerolog.Logger
	queue      string
	retryDelay time.Duration
}

// NewGroupEventWorker creates a new GroupEventWorker.
func NewGroupEventWorker(events EventStore, rdb *redis.Client, log zerolog.Logger) *GroupEventWorker {
	return &GroupEventWorker{
		events:     events,
		rdb:        rdb,
		log:        log.With().Str("component", "group_event_worker").Logger(),
		queue:      config.WorkerKey.PersistGroupEventsQueue,
		retryDelay: 5 * time.Second,
	}
}

// Start begins the worker loop and returns once ctx is cancelled and the queue is drained.
// Call in a goroutine.
func (w *GroupEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GroupEventWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, w.queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if err := w.handle(ctx, result[1]); err != nil {
		w.log.Error().Err(err).Dur("retry_in", w.retryDelay).Msg("Persist error, retrying")
		w.requeue(result[1])
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

// handle persists one raw payload. Malformed payloads are logged and dropped.
func (w *GroupEventWorker) handle(ctx context.Context, raw string) error {
	event, err := decodeEvent(raw)
	if err != nil {
		w.log.Error().Err(err).Str("payload", raw).Msg("Dropping malformed event")
		return nil
	}
	return w.events.Append(ctx, event)
}

// drain processes all remaining items in the queue before shutdown.
func (w *GroupEventWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, w.queue).Result()
		if err != nil {
			break
		}
		if err := w.handle(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.requeue(raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining events")
	}
}

// requeue pushes raw back onto the queue. It uses its own deadline because the
// worker context is usually cancelled by the time a shutdown-time write fails.
// A payload that cannot be pushed back is logged in full.
func (w *GroupEventWorker) requeue(raw string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requeueTimeout)
	defer cancel()

	if err := w.rdb.RPush(ctx, w.queue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("payload", raw).Msg("Requeue failed, event lost")
		return err
	}
	return nil
}

func decodeEvent(raw string) (*model.GroupEvent, error) {
	var event model.GroupEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return nil, err
	}
	if event.GroupID <= 0 || event.Type == "" {
		return nil, errors.New("event missing type or group id")
	}
	return &event, nil
}
