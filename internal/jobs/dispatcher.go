package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
)

// Dispatcher enqueues jobs onto the broker. It satisfies the incident
// service's Dispatcher interface; callers never wait on job completion.
type Dispatcher struct {
	broker  Broker
	logger  log.Logger
	metrics *Metrics
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(broker Broker, logger log.Logger, metrics *Metrics) *Dispatcher {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Dispatcher{
		broker:  broker,
		logger:  logger,
		metrics: metrics,
	}
}

// NotifyEmail enqueues an email notification for the given incident.
func (d *Dispatcher) NotifyEmail(ctx context.Context, incidentID int64, text string) error {
	return d.enqueue(ctx, NameNotifyEmail, NotificationPayload{IncidentID: incidentID, Text: text})
}

// NotifyMessaging enqueues a messaging notification for the given incident.
func (d *Dispatcher) NotifyMessaging(ctx context.Context, incidentID int64, text string) error {
	return d.enqueue(ctx, NameNotifyMessaging, NotificationPayload{IncidentID: incidentID, Text: text})
}

// RefreshStatistics enqueues a statistics recomputation. No payload.
func (d *Dispatcher) RefreshStatistics(ctx context.Context) error {
	return d.enqueue(ctx, NameRefreshStatistics, nil)
}

func (d *Dispatcher) enqueue(ctx context.Context, name string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", name, err)
		}
		raw = b
	}

	job := &Job{
		ID:         ulid.Make().String(),
		Name:       name,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := d.broker.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue %s: %w", name, err)
	}

	d.metrics.EnqueuedTotal.WithLabelValues(name).Inc()
	d.logger.Info(ctx, "job enqueued", "job_id", job.ID, "job", name)
	return nil
}
