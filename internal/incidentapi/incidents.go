package incidentapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/incidentd/internal/incident"
)

func (a *API) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var req incident.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	created, err := a.svc.Create(r.Context(), &req)
	if err != nil {
		var ve *incident.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve)
			return
		}
		a.logger.Error(r.Context(), err, "failed to create incident")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.Int64("incident.id", created.ID),
		attribute.String("incident.source", created.Source),
	)

	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	f, ve := parseListQuery(r)
	if ve != nil {
		writeValidationError(w, ve)
		return
	}

	incidents, err := a.svc.List(r.Context(), f)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list incidents")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, incidents)
}

func (a *API) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		// a non-numeric id can never reference an incident
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int64("incident.id", id))

	var req incident.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	updated, ok, err := a.svc.Update(r.Context(), id, &req)
	if err != nil {
		var ve *incident.ValidationError
		if errors.As(err, &ve) {
			writeValidationError(w, ve)
			return
		}
		a.logger.Error(r.Context(), err, "failed to update incident", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "incident not found")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// parseListQuery reads the status filter and skip/limit pagination from the
// query string. Violations surface with the same per-field shape as body
// validation so clients see one error format.
func parseListQuery(r *http.Request) (incident.Filter, *incident.ValidationError) {
	var (
		f      incident.Filter
		fields []incident.FieldError
	)

	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := incident.Status(raw)
		if !status.Valid() {
			fields = append(fields, incident.FieldError{Field: "status", Constraint: "oneof", Param: "new in_progress closed"})
		} else {
			f.Status = &status
		}
	}

	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			fields = append(fields, incident.FieldError{Field: "skip", Constraint: "min", Param: "0"})
		} else {
			f.Offset = skip
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			fields = append(fields, incident.FieldError{Field: "limit", Constraint: "min", Param: "0"})
		} else {
			f.Limit = limit
		}
	}

	if len(fields) > 0 {
		return incident.Filter{}, &incident.ValidationError{Fields: fields}
	}
	return f, nil
}
