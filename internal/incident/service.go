package incident

import (
	"context"

	"github.com/linnemanlabs/go-core/log"
)

const (
	// DefaultListLimit applies when the caller does not bound the page.
	DefaultListLimit = 100

	// MaxListLimit caps a single page regardless of what the caller asks for.
	MaxListLimit = 1000
)

// Dispatcher enqueues notification jobs for a created incident. Enqueue is
// fire-and-forget from the service's perspective: a returned error means the
// job never reached the broker, never that delivery failed.
type Dispatcher interface {
	NotifyEmail(ctx context.Context, incidentID int64, text string) error
	NotifyMessaging(ctx context.Context, incidentID int64, text string) error
}

// Service is the business boundary for incident operations.
type Service struct {
	store      Store
	dispatcher Dispatcher
	logger     log.Logger
	metrics    *Metrics
}

// NewService creates a new incident service. dispatcher may be nil, in which
// case creation skips notification dispatch (dev mode without a broker).
func NewService(store Store, dispatcher Dispatcher, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// Create validates the request, persists a new incident, and kicks off the
// notification jobs. The jobs are dispatched after the record is committed;
// a dispatch failure is logged and counted but does not undo the creation.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Incident, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ValidationFailures.WithLabelValues("create").Inc()
		return nil, err
	}

	created, err := s.store.Create(ctx, req.Incident())
	if err != nil {
		return nil, err
	}
	s.metrics.CreatedTotal.Inc()

	// dispatch decoupled from the request lifetime - the HTTP response
	// must not wait on the broker.
	if s.dispatcher != nil {
		go s.dispatchNotifications(context.WithoutCancel(ctx), created.ID, created.Text)
	}

	return created, nil
}

// Get retrieves an incident by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Incident, bool, error) {
	return s.store.Get(ctx, id)
}

// List returns incidents ordered by creation time descending, newest first.
// A zero limit gets the default page size; oversized limits are capped.
func (s *Service) List(ctx context.Context, f Filter) ([]Incident, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.store.List(ctx, f)
}

// Update validates and applies a sparse update. Fields absent from the
// request keep their stored values. An empty patch is a no-op read.
func (s *Service) Update(ctx context.Context, id int64, req *UpdateRequest) (*Incident, bool, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ValidationFailures.WithLabelValues("update").Inc()
		return nil, false, err
	}

	p := req.Patch()
	if p.Empty() {
		return s.store.Get(ctx, id)
	}

	inc, ok, err := s.store.Update(ctx, id, p)
	if err != nil {
		return nil, false, err
	}
	if ok {
		s.metrics.UpdatedTotal.WithLabelValues("ok").Inc()
	} else {
		s.metrics.UpdatedTotal.WithLabelValues("not_found").Inc()
	}
	return inc, ok, nil
}

// CountByStatus reports the number of incidents per status. Used by the
// statistics refresh job.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	return s.store.CountByStatus(ctx)
}

func (s *Service) dispatchNotifications(ctx context.Context, id int64, text string) {
	L := s.logger.With("incident_id", id)

	if err := s.dispatcher.NotifyEmail(ctx, id, text); err != nil {
		s.metrics.DispatchTotal.WithLabelValues("notify_email", "error").Inc()
		L.Error(ctx, err, "failed to enqueue email notification")
	} else {
		s.metrics.DispatchTotal.WithLabelValues("notify_email", "ok").Inc()
	}

	if err := s.dispatcher.NotifyMessaging(ctx, id, text); err != nil {
		s.metrics.DispatchTotal.WithLabelValues("notify_messaging", "error").Inc()
		L.Error(ctx, err, "failed to enqueue messaging notification")
	} else {
		s.metrics.DispatchTotal.WithLabelValues("notify_messaging", "ok").Inc()
	}
}
