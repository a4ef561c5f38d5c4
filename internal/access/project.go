package access

import (
	"time"

	"github.com/timevault-dev/timevault/internal/domain"
)

// ImageView is the only shape image metadata leaves the engine in.
// Size stays internal.
type ImageView struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CapsuleView is the projected response shape. Fields absent from a
// state's allow-list stay at their zero value and are dropped from JSON.
type CapsuleView struct {
	Id            domain.CapsuleId  `json:"id"`
	Title         string            `json:"title,omitempty"`
	Content       string            `json:"content,omitempty"`
	Images        *[]ImageView      `json:"images,omitempty"`
	Visibility    domain.Visibility `json:"visibility,omitempty"`
	ShowCountdown *bool             `json:"showCountdown,omitempty"`
	OpenDate      *time.Time        `json:"openDate,omitempty"`
	SealedAt      *time.Time        `json:"sealedAt,omitempty"`
	Senders       []domain.UserId   `json:"senders"`
	Receivers     []domain.UserId   `json:"receivers"`
}

// ProjectView selects the field subset visible for the decision's state.
// It is a strict allow-list:
//
//	unsealed -> id, title, content, images, visibility, showCountdown, senders, receivers
//	sealed   -> id, openDate, senders, receivers (never title/content/images, even for senders)
//	opened   -> all of the above plus openDate and sealedAt
//
// The decision must come from an authorization check over the same capsule;
// a denied decision projects to the zero view.
func ProjectView(c *domain.Capsule, d Decision) CapsuleView {
	if !d.Allowed {
		return CapsuleView{}
	}

	view := CapsuleView{
		Id:        c.Id,
		Senders:   append([]domain.UserId{}, c.Senders...),
		Receivers: append([]domain.UserId{}, c.Receivers...),
	}

	if d.State == domain.StateSealed {
		view.OpenDate = c.OpenDate
		return view
	}

	// unsealed and opened disclose content
	view.Title = c.Title
	view.Content = c.Content
	view.Visibility = c.Visibility
	showCountdown := c.ShowCountdown
	view.ShowCountdown = &showCountdown

	images := make([]ImageView, len(c.Images))
	for i, img := range c.Images {
		images[i] = ImageView{Name: img.Name, Type: img.MimeType}
	}
	view.Images = &images

	if d.State == domain.StateOpened {
		view.OpenDate = c.OpenDate
		view.SealedAt = c.SealedAt
	}
	return view
}
