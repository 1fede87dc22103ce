package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"salesops_backend/internal/events"
	"salesops_backend/platform/config"
	"salesops_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes queued notification tasks and republishes them as events on
// the process-local bus, where the notification module delivers them.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Bus, log *logger.Logger) (*Worker, error) {
	connOpt, err := redisConnOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(connOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		bus:    bus,
		log:    log,
	}
	w.mux.HandleFunc(TypeDestinationNotify, w.handleDestinationNotify)
	w.mux.HandleFunc(TypeRunSummaryNotify, w.handleRunSummaryNotify)

	return w, nil
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	w.log.JobEvent("worker", "started")
	return w.server.Run(w.mux)
}

// Shutdown drains in-flight tasks and stops the server.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
	w.log.JobEvent("worker", "stopped")
}

func (w *Worker) handleDestinationNotify(ctx context.Context, task *asynq.Task) error {
	var payload DestinationNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}

	return w.bus.PublishSync(ctx, events.DestinationAssigned{
		BaseEvent:    events.NewBaseEvent(),
		RunID:        payload.RunID,
		AdvisorID:    payload.AdvisorID,
		AdvisorName:  payload.AdvisorName,
		AdvisorEmail: payload.AdvisorEmail,
		Requested:    payload.Requested,
		Assigned:     payload.Assigned,
		Deficit:      payload.Deficit,
		ExportKey:    payload.ExportKey,
	})
}

func (w *Worker) handleRunSummaryNotify(ctx context.Context, task *asynq.Task) error {
	var payload RunSummaryNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}

	return w.bus.PublishSync(ctx, events.DistributionCompleted{
		BaseEvent:      events.NewBaseEvent(),
		RunID:          payload.RunID,
		Destinations:   payload.Destinations,
		TotalRequested: payload.TotalRequested,
		TotalAssigned:  payload.TotalAssigned,
		TotalDeficit:   payload.TotalDeficit,
	})
}
