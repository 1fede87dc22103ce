package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"salesops_backend/internal/events"
	"salesops_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// redisConnOpt builds the asynq connection options from a Redis URL.
func redisConnOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	connOpt := asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
	if opts.TLSConfig != nil {
		connOpt.TLSConfig = opts.TLSConfig
		if tlsInsecure {
			connOpt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	return connOpt, nil
}

// Dispatcher turns distribution events into queued notification tasks. It
// keeps the run loop free of SMTP latency and lets the worker retry delivery.
type Dispatcher struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

func NewDispatcher(redisURL string, tlsInsecure bool, queue string, log *logger.Logger) (*Dispatcher, error) {
	connOpt, err := redisConnOpt(redisURL, tlsInsecure)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		client: asynq.NewClient(connOpt),
		queue:  queue,
		log:    log,
	}, nil
}

// RegisterHandlers subscribes the dispatcher to the distribution events.
func (d *Dispatcher) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DestinationAssigned{}.EventName(), events.HandlerFunc(d.handleDestinationAssigned))
	bus.Subscribe(events.DistributionCompleted{}.EventName(), events.HandlerFunc(d.handleRunCompleted))
}

func (d *Dispatcher) handleDestinationAssigned(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DestinationAssigned)
	if !ok {
		return nil
	}

	task, err := NewDestinationNotifyTask(DestinationNotifyPayload{
		RunID:        e.RunID,
		AdvisorID:    e.AdvisorID,
		AdvisorName:  e.AdvisorName,
		AdvisorEmail: e.AdvisorEmail,
		Requested:    e.Requested,
		Assigned:     e.Assigned,
		Deficit:      e.Deficit,
		ExportKey:    e.ExportKey,
	})
	if err != nil {
		return err
	}

	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue))
	return err
}

func (d *Dispatcher) handleRunCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DistributionCompleted)
	if !ok {
		return nil
	}

	task, err := NewRunSummaryNotifyTask(RunSummaryNotifyPayload{
		RunID:          e.RunID,
		Destinations:   e.Destinations,
		TotalRequested: e.TotalRequested,
		TotalAssigned:  e.TotalAssigned,
		TotalDeficit:   e.TotalDeficit,
	})
	if err != nil {
		return err
	}

	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue))
	return err
}

// Close releases the queue connection.
func (d *Dispatcher) Close() error {
	return d.client.Close()
}
