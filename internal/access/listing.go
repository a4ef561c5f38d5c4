package access

import (
	"time"

	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/errors"
)

// Audience selects the filter applied when enumerating capsules.
type Audience string

const (
	// Owner audiences; the listing's viewer is the owning caller.
	AudienceOwner    Audience = "owner" // sent OR received OR draft
	AudienceDraft    Audience = "draft"
	AudienceSent     Audience = "sent"
	AudienceReceived Audience = "received"

	// Public feed audiences; no viewer involved.
	AudiencePublic       Audience = "public" // countdown-visible sealed OR opened
	AudiencePublicSealed Audience = "public_sealed"
	AudiencePublicOpened Audience = "public_opened"
)

// DefaultTake is the page size when the caller supplies none.
const DefaultTake = 10

// Listing is a filter + total order + page over capsules. Now is sampled
// once at build time and used for every record in the page, keeping the
// order stable while time passes mid-query. The storage layer translates
// a Listing to SQL; Matches and Less are the same rules evaluated in
// memory, so the ordering and tie-breaks stay unit-testable without a
// database.
type Listing struct {
	Audience Audience
	Viewer   domain.UserId
	Skip     int
	Take     int
	Now      time.Time
}

// BuildListing validates pagination and pairs the audience with its
// viewer. Owner audiences require a viewer; public audiences ignore it.
func BuildListing(audience Audience, viewer *domain.UserId, skip, take int, now time.Time) (Listing, error) {
	if skip < 0 {
		return Listing{}, errors.Validation("skip must be a non-negative integer")
	}
	if take < 0 {
		return Listing{}, errors.Validation("take must be a non-negative integer")
	}
	if take == 0 {
		take = DefaultTake
	}

	l := Listing{Audience: audience, Skip: skip, Take: take, Now: now}

	switch audience {
	case AudienceOwner, AudienceDraft, AudienceSent, AudienceReceived:
		if viewer == nil {
			return Listing{}, errors.Forbidden("authentication required")
		}
		l.Viewer = *viewer
	case AudiencePublic, AudiencePublicSealed, AudiencePublicOpened:
	default:
		return Listing{}, errors.Validation("unknown listing audience")
	}

	return l, nil
}

// Matches reports whether the capsule belongs to the listing's audience,
// with lifecycle state derived at the listing's Now.
func (l Listing) Matches(c *domain.Capsule) bool {
	state := c.State(l.Now)

	draft := c.IsSentBy(l.Viewer) && state == domain.StateUnsealed
	sent := c.IsSentBy(l.Viewer)
	received := c.IsReceivedBy(l.Viewer) && state == domain.StateOpened

	switch l.Audience {
	case AudienceDraft:
		return draft
	case AudienceSent:
		return sent
	case AudienceReceived:
		return received
	case AudienceOwner:
		return sent || received || draft
	case AudiencePublicSealed:
		return c.Visibility == domain.VisibilityPublic && state == domain.StateSealed && c.ShowCountdown
	case AudiencePublicOpened:
		return c.Visibility == domain.VisibilityPublic && state == domain.StateOpened
	case AudiencePublic:
		return c.Visibility == domain.VisibilityPublic &&
			((state == domain.StateSealed && c.ShowCountdown) || state == domain.StateOpened)
	}
	return false
}

// Less is the listing's total order, descending priority:
//
//  1. capsules with an open date before capsules without one
//  2. ascending time remaining until open (soonest first; long-opened last
//     of the opened, since their remaining time is most negative)
//  3. descending sealedAt
//  4. descending createdAt
func (l Listing) Less(a, b *domain.Capsule) bool {
	aHas, bHas := a.OpenDate != nil, b.OpenDate != nil
	if aHas != bHas {
		return aHas
	}

	if aHas && bHas && !a.OpenDate.Equal(*b.OpenDate) {
		// With Now fixed per listing, ascending remaining time is
		// ascending open date.
		return a.OpenDate.Before(*b.OpenDate)
	}

	aSealed, bSealed := a.SealedAt, b.SealedAt
	switch {
	case aSealed != nil && bSealed == nil:
		return true
	case aSealed == nil && bSealed != nil:
		return false
	case aSealed != nil && bSealed != nil && !aSealed.Equal(*bSealed):
		return aSealed.After(*bSealed)
	}

	return a.CreatedAt.After(b.CreatedAt)
}
