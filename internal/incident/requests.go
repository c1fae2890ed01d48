package incident

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Field names in reported errors
// come from the json tag so they match what the client actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateRequest is the accepted shape for creating an incident.
// Status is optional and defaults to "new".
type CreateRequest struct {
	Text        string `json:"text" validate:"required,min=1,max=1000"`
	Description string `json:"description" validate:"required,min=1"`
	Status      Status `json:"status" validate:"omitempty,oneof=new in_progress closed"`
	Source      string `json:"source" validate:"required,min=1,max=100"`
}

// UpdateRequest is the accepted shape for a sparse update. Every field is
// optional; absent fields must not overwrite stored values, hence pointers.
// omitnil rather than omitempty: a field set to its zero value is still a
// set field and has to pass its constraints.
type UpdateRequest struct {
	Text        *string `json:"text" validate:"omitnil,min=1,max=1000"`
	Description *string `json:"description" validate:"omitnil,min=1"`
	Status      *Status `json:"status" validate:"omitnil,oneof=new in_progress closed"`
	Source      *string `json:"source" validate:"omitnil,min=1,max=100"`
}

// FieldError describes a single violated constraint on a request field.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Param      string `json:"param,omitempty"`
}

// ValidationError carries per-field constraint violations back to the API,
// which surfaces them as a 422 response.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Param != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", f.Field, f.Constraint, f.Param))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Constraint))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// asValidationError converts validator output into the API-facing error shape.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	ve := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field:      fe.Field(),
			Constraint: fe.Tag(),
			Param:      fe.Param(),
		})
	}
	return ve
}

// Validate checks the create shape against its field constraints.
func (r *CreateRequest) Validate() error {
	return asValidationError(validate.Struct(r))
}

// Incident projects the request into a new record, defaulting status.
// ID and CreatedAt are left for the store to assign.
func (r *CreateRequest) Incident() *Incident {
	status := r.Status
	if status == "" {
		status = StatusNew
	}
	return &Incident{
		Text:        r.Text,
		Description: r.Description,
		Status:      status,
		Source:      r.Source,
	}
}

// Validate checks the update shape against its field constraints.
func (r *UpdateRequest) Validate() error {
	return asValidationError(validate.Struct(r))
}

// Patch converts the request into a store-level sparse patch.
func (r *UpdateRequest) Patch() Patch {
	return Patch{
		Text:        r.Text,
		Description: r.Description,
		Status:      r.Status,
		Source:      r.Source,
	}
}
