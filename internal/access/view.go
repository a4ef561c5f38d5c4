package access

import (
	"time"

	"github.com/timevault-dev/timevault/internal/domain"
)

// AuthorizeView decides whether viewer may see the capsule at now.
// viewer is nil for anonymous callers. The full matrix:
//
//	unsealed                      -> senders only
//	sealed, private               -> senders only
//	sealed, public, no countdown  -> senders allowed, everyone else locked
//	sealed, public, countdown     -> everyone (open date only)
//	opened, private               -> senders and receivers
//	opened, public                -> everyone
func AuthorizeView(c *domain.Capsule, viewer *domain.UserId, now time.Time) Decision {
	state := c.State(now)
	isSender := viewer != nil && c.IsSentBy(*viewer)

	switch state {
	case domain.StateUnsealed:
		if !isSender {
			return forbidden(state, "you are not allowed to access this capsule")
		}
		return allow(state)

	case domain.StateSealed:
		if isSender {
			return allow(state)
		}
		if c.Visibility == domain.VisibilityPrivate {
			return forbidden(state, "you are not allowed to access this capsule")
		}
		// Public but countdown-hidden capsules stay invisible to
		// non-senders until they open.
		if !c.ShowCountdown {
			return locked(state, "capsule is sealed and cannot be opened yet")
		}
		return allow(state)

	default: // opened
		if c.Visibility == domain.VisibilityPrivate {
			isReceiver := viewer != nil && c.IsReceivedBy(*viewer)
			if !isSender && !isReceiver {
				return forbidden(state, "you are not allowed to access this capsule")
			}
		}
		return allow(state)
	}
}
