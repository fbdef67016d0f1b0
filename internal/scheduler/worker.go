package scheduler

import (
	"context"
	"fmt"

	catalogservice "realty_portal_backend/internal/catalog/service"
	"realty_portal_backend/platform/apperr"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	catalog *catalogservice.Service
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, catalog *catalogservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		catalog: catalog,
		log:     log,
	}

	mux.HandleFunc(TaskQualityRecalculate, w.handleQualityRecalculate)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleQualityRecalculate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQualityRecalculatePayload(task)
	if err != nil {
		return err
	}

	propertyID, err := uuid.Parse(payload.PropertyID)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		return err
	}

	// A property deleted between enqueue and processing is not a failure
	// worth retrying.
	if _, err := w.catalog.CalculateQualityScore(ctx, tenantID, propertyID); err != nil {
		if apperr.GetKind(err) == apperr.KindNotFound {
			w.log.Warn("skipping quality recalculation for missing property",
				"propertyId", payload.PropertyID)
			return nil
		}
		return err
	}

	return nil
}
