package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/incidentd/internal/incident"
)

// Simulated delivery delays, mirroring what real providers would cost.
const (
	emailDelay     = 3 * time.Second
	messagingDelay = 2 * time.Second
)

// HandlerFunc runs one job and returns its result. The worker pool fills in
// JobID, Name, and SentAt; handlers only set the job-specific fields.
type HandlerFunc func(ctx context.Context, job *Job) (*Result, error)

// StatsSource is the slice of the incident store the statistics job needs.
type StatsSource interface {
	CountByStatus(ctx context.Context) (map[incident.Status]int64, error)
}

// Handlers holds the job bodies. Notification delivery is simulated: the
// handlers wait out a fixed delay and log, there is no external send.
type Handlers struct {
	stats  StatsSource
	logger log.Logger

	// overridable in tests
	emailDelay     time.Duration
	messagingDelay time.Duration
}

// NewHandlers creates the job handler set.
func NewHandlers(stats StatsSource, logger log.Logger) *Handlers {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handlers{
		stats:          stats,
		logger:         logger,
		emailDelay:     emailDelay,
		messagingDelay: messagingDelay,
	}
}

// Map returns the handler for each job name the pool should accept.
func (h *Handlers) Map() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		NameNotifyEmail:       h.notifyEmail,
		NameNotifyMessaging:   h.notifyMessaging,
		NameRefreshStatistics: h.refreshStatistics,
	}
}

func (h *Handlers) notifyEmail(ctx context.Context, job *Job) (*Result, error) {
	return h.notify(ctx, job, "email", h.emailDelay)
}

func (h *Handlers) notifyMessaging(ctx context.Context, job *Job) (*Result, error) {
	return h.notify(ctx, job, "messaging", h.messagingDelay)
}

func (h *Handlers) notify(ctx context.Context, job *Job, channel string, delay time.Duration) (*Result, error) {
	var p NotificationPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", job.Name, err)
	}

	h.logger.Info(ctx, "sending notification", "channel", channel, "incident_id", p.IncidentID, "text", p.Text)

	if err := sleep(ctx, delay); err != nil {
		return nil, err
	}

	h.logger.Info(ctx, "notification sent", "channel", channel, "incident_id", p.IncidentID)
	return &Result{Status: ResultSent, IncidentID: p.IncidentID}, nil
}

func (h *Handlers) refreshStatistics(ctx context.Context, _ *Job) (*Result, error) {
	counts, err := h.stats.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}

	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}

	h.logger.Info(ctx, "statistics refreshed", "counts", out)
	return &Result{Status: ResultUpdated, Counts: out}, nil
}

// sleep waits out d, or returns the context error if cancelled first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
