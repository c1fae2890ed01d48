package incident

import (
	"errors"
	"strings"
	"testing"
)

func strPtr(s string) *string   { return &s }
func statusPtr(s Status) *Status { return &s }

func validCreate() CreateRequest {
	return CreateRequest{
		Text:        "server down",
		Description: "db unreachable",
		Source:      "monitoring",
	}
}

func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T (%v), want *ValidationError", err, err)
	}
	return ve.Fields
}

func TestCreateRequest_Valid(t *testing.T) {
	t.Parallel()

	req := validCreate()
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestCreateRequest_StatusOptional(t *testing.T) {
	t.Parallel()

	req := validCreate()
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	inc := req.Incident()
	if inc.Status != StatusNew {
		t.Errorf("Status = %q, want %q", inc.Status, StatusNew)
	}
	if inc.ID != 0 {
		t.Errorf("ID = %d, want 0 (store-assigned)", inc.ID)
	}
	if !inc.CreatedAt.IsZero() {
		t.Errorf("CreatedAt = %v, want zero (store-assigned)", inc.CreatedAt)
	}
}

func TestCreateRequest_ExplicitStatus(t *testing.T) {
	t.Parallel()

	req := validCreate()
	req.Status = StatusClosed
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if got := req.Incident().Status; got != StatusClosed {
		t.Errorf("Status = %q, want %q", got, StatusClosed)
	}
}

func TestCreateRequest_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		mutate         func(*CreateRequest)
		wantField      string
		wantConstraint string
	}{
		{"empty text", func(r *CreateRequest) { r.Text = "" }, "text", "required"},
		{"text too long", func(r *CreateRequest) { r.Text = strings.Repeat("a", 1001) }, "text", "max"},
		{"empty description", func(r *CreateRequest) { r.Description = "" }, "description", "required"},
		{"empty source", func(r *CreateRequest) { r.Source = "" }, "source", "required"},
		{"source too long", func(r *CreateRequest) { r.Source = strings.Repeat("s", 101) }, "source", "max"},
		{"bad status", func(r *CreateRequest) { r.Status = "escalated" }, "status", "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validCreate()
			tt.mutate(&req)
			fields := fieldErrors(t, req.Validate())
			if len(fields) != 1 {
				t.Fatalf("got %d field errors %v, want 1", len(fields), fields)
			}
			if fields[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fields[0].Field, tt.wantField)
			}
			if fields[0].Constraint != tt.wantConstraint {
				t.Errorf("Constraint = %q, want %q", fields[0].Constraint, tt.wantConstraint)
			}
		})
	}
}

func TestCreateRequest_BoundaryLengths(t *testing.T) {
	t.Parallel()

	req := validCreate()
	req.Text = strings.Repeat("a", 1000)
	req.Source = strings.Repeat("s", 100)
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() at max lengths = %v, want nil", err)
	}
}

func TestCreateRequest_MultipleViolations(t *testing.T) {
	t.Parallel()

	req := CreateRequest{}
	fields := fieldErrors(t, req.Validate())
	if len(fields) != 3 {
		t.Fatalf("got %d field errors %v, want 3 (text, description, source)", len(fields), fields)
	}
}

func TestUpdateRequest_AllAbsentIsValid(t *testing.T) {
	t.Parallel()

	req := UpdateRequest{}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if !req.Patch().Empty() {
		t.Error("Patch().Empty() = false for empty request")
	}
}

func TestUpdateRequest_SetFieldsValidated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		req            UpdateRequest
		wantField      string
		wantConstraint string
	}{
		{"empty text set", UpdateRequest{Text: strPtr("")}, "text", "min"},
		{"text too long", UpdateRequest{Text: strPtr(strings.Repeat("a", 1001))}, "text", "max"},
		{"empty description set", UpdateRequest{Description: strPtr("")}, "description", "min"},
		{"bad status", UpdateRequest{Status: statusPtr("done")}, "status", "oneof"},
		{"empty source set", UpdateRequest{Source: strPtr("")}, "source", "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields := fieldErrors(t, tt.req.Validate())
			if len(fields) != 1 {
				t.Fatalf("got %d field errors %v, want 1", len(fields), fields)
			}
			if fields[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fields[0].Field, tt.wantField)
			}
			if fields[0].Constraint != tt.wantConstraint {
				t.Errorf("Constraint = %q, want %q", fields[0].Constraint, tt.wantConstraint)
			}
		})
	}
}

func TestUpdateRequest_Patch(t *testing.T) {
	t.Parallel()

	req := UpdateRequest{
		Status: statusPtr(StatusClosed),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	p := req.Patch()
	if p.Status == nil || *p.Status != StatusClosed {
		t.Errorf("Patch().Status = %v, want %q", p.Status, StatusClosed)
	}
	if p.Text != nil || p.Description != nil || p.Source != nil {
		t.Error("unset request fields leaked into patch")
	}
}

func TestValidationError_Message(t *testing.T) {
	t.Parallel()

	ve := &ValidationError{Fields: []FieldError{
		{Field: "text", Constraint: "max", Param: "1000"},
		{Field: "status", Constraint: "oneof"},
	}}

	msg := ve.Error()
	for _, sub := range []string{"text", "max=1000", "status", "oneof"} {
		if !strings.Contains(msg, sub) {
			t.Errorf("Error() = %q, missing %q", msg, sub)
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusNew, StatusInProgress, StatusClosed} {
		if !s.Valid() {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}
	for _, s := range []Status{"", "NEW", "open", "done"} {
		if s.Valid() {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}
