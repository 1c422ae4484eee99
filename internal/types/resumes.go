package types

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateResumeRequest creates a new resume document.
type CreateResumeRequest struct {
	Title string          `json:"title" validate:"required,min=1"`
	Data  json.RawMessage `json:"data"`
}

// UpdateResumeRequest replaces a resume's title and document.
type UpdateResumeRequest struct {
	Title string          `json:"title" validate:"required,min=1"`
	Data  json.RawMessage `json:"data"`
}

// ResumeResponse is a resume as the API returns it.
type ResumeResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Title     string          `json:"title"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate validates the CreateResumeRequest using the validator.
func (r *CreateResumeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateResumeRequest using the validator.
func (r *UpdateResumeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
