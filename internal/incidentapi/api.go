// Package incidentapi exposes the incident CRUD operations over HTTP.
package incidentapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/incidentd/internal/incident"
)

// IncidentService defines the business operations incidentapi needs.
type IncidentService interface {
	Create(ctx context.Context, req *incident.CreateRequest) (*incident.Incident, error)
	List(ctx context.Context, f incident.Filter) ([]incident.Incident, error)
	Update(ctx context.Context, id int64, req *incident.UpdateRequest) (*incident.Incident, bool, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	svc     IncidentService
	version string
}

// New creates a new API handler.
func New(logger log.Logger, svc IncidentService, version string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("incident service is required"))
	}
	return &API{
		logger:  logger,
		svc:     svc,
		version: version,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Post("/", a.handleCreateIncident)
		r.Get("/", a.handleListIncidents)
		r.Patch("/{id}", a.handleUpdateIncident)
	})
	r.Get("/", a.handleRoot)
}

// handleRoot is a static service descriptor with no store interaction.
func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Incident Management API",
		"docs":    "/docs",
		"version": a.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with encode errors at this point
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeValidationError(w http.ResponseWriter, ve *incident.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":   "validation failed",
		"details": ve.Fields,
	})
}
