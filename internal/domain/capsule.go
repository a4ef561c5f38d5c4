package domain

import (
	"slices"
	"time"
)

// Image is per-capsule attachment metadata. The binary itself lives in the
// media store under Name; SizeBytes never leaves the service.
type Image struct {
	Name      string
	MimeType  string
	SizeBytes int64
}

type Capsule struct {
	Id            CapsuleId
	Title         string
	Content       string
	Images        []Image
	Visibility    Visibility
	ShowCountdown bool
	OpenDate      *time.Time
	SealedAt      *time.Time // stamped by the same mutation that sets OpenDate, never by callers
	Senders       UserIds
	Receivers     UserIds
	CreatedAt     time.Time
}

// DeriveState computes the lifecycle state from OpenDate against now.
// The sealed check runs first, so a capsule whose open date equals now
// exactly is still sealed. That tie-break is pinned behavior.
func DeriveState(openDate *time.Time, now time.Time) State {
	if openDate == nil {
		return StateUnsealed
	}
	if !openDate.Before(now) {
		return StateSealed
	}
	return StateOpened
}

func (c *Capsule) State(now time.Time) State {
	return DeriveState(c.OpenDate, now)
}

func (c *Capsule) IsSentBy(userId UserId) bool {
	return slices.Contains(c.Senders, userId)
}

func (c *Capsule) IsReceivedBy(userId UserId) bool {
	return slices.Contains(c.Receivers, userId)
}

// FindImage returns the image metadata for name, or nil if the capsule
// has no image with that name.
func (c *Capsule) FindImage(name string) *Image {
	for i := range c.Images {
		if c.Images[i].Name == name {
			return &c.Images[i]
		}
	}
	return nil
}
