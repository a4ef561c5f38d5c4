// Package api holds the request/response DTOs of the HTTP surface.
package api

import (
	"time"

	"github.com/timevault-dev/timevault/internal/access"
)

type ImagePayload struct {
	Name      string `json:"name" validate:"required"`
	Type      string `json:"type" validate:"required"`
	SizeBytes int64  `json:"sizeBytes" validate:"gte=0"`
}

type CreateCapsuleRequest struct {
	Title         string         `json:"title" validate:"required"`
	Content       string         `json:"content"`
	Visibility    string         `json:"visibility" validate:"required,oneof=public private"`
	ShowCountdown bool           `json:"showCountdown"`
	OpenDate      *time.Time     `json:"openDate"`
	Collaborators []string       `json:"collaborators"`
	Receivers     []string       `json:"receivers"`
	Images        []ImagePayload `json:"images"`
}

// EditCapsuleRequest is a partial update: absent fields stay untouched.
type EditCapsuleRequest struct {
	Title         *string         `json:"title" validate:"omitempty,min=1"`
	Content       *string         `json:"content"`
	Visibility    *string         `json:"visibility" validate:"omitempty,oneof=public private"`
	ShowCountdown *bool           `json:"showCountdown"`
	OpenDate      *time.Time      `json:"openDate"`
	Collaborators *[]string       `json:"collaborators"`
	Receivers     *[]string       `json:"receivers"`
	Images        *[]ImagePayload `json:"images"`
}

type CreateCapsuleResponse struct {
	Id string `json:"id"`
}

type CapsuleListResponse struct {
	Capsules []access.CapsuleView `json:"capsules"`
}
