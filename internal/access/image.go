package access

import (
	"time"

	"github.com/timevault-dev/timevault/internal/domain"
)

// AuthorizeImage gates streaming of a single attached image. It is
// stricter than AuthorizeView for sealed capsules: while sealed, images
// are never retrievable, countdown or not, sender or not.
//
// An unknown image name on an otherwise valid capsule is a not-found
// condition, checked before the state switch so it never masquerades as
// an authorization denial.
func AuthorizeImage(c *domain.Capsule, viewer *domain.UserId, imageName string, now time.Time) Decision {
	state := c.State(now)

	if c.FindImage(imageName) == nil {
		return notFound(state, "image not found")
	}

	isSender := viewer != nil && c.IsSentBy(*viewer)

	switch state {
	case domain.StateUnsealed:
		if !isSender {
			return forbidden(state, "you are not allowed to access this image")
		}
		return allow(state)

	case domain.StateSealed:
		return locked(state, "capsule is sealed, image cannot be accessed")

	default: // opened
		if c.Visibility == domain.VisibilityPrivate {
			isReceiver := viewer != nil && c.IsReceivedBy(*viewer)
			if !isSender && !isReceiver {
				return forbidden(state, "you are not allowed to access this image")
			}
		}
		return allow(state)
	}
}
