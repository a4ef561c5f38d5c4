// Package access is the capsule temporal access-control engine. Every
// function here is a pure computation over a capsule snapshot, the viewer
// identity and a caller-supplied "now"; nothing is cached or mutated.
package access

import (
	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/errors"
)

type Reason int

const (
	ReasonNone Reason = iota
	// ReasonForbidden denials never resolve: the viewer is not allowed
	// to see this capsule, now or after it opens.
	ReasonForbidden
	// ReasonLocked denials resolve once the capsule opens (HTTP 423).
	ReasonLocked
	// ReasonNotFound is used by the image gate when the requested image
	// does not exist on an otherwise accessible capsule.
	ReasonNotFound
)

// Decision is the outcome of an authorization check. State carries the
// lifecycle state derived during the check so callers project with the
// same "now" they authorized with.
type Decision struct {
	Allowed bool
	State   domain.State
	Reason  Reason
	Message string
}

// Err maps a denial onto the service error taxonomy. Returns nil when
// the decision allows access.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonLocked:
		return errors.Locked(d.Message)
	case ReasonNotFound:
		return errors.NotFound(d.Message)
	default:
		return errors.Forbidden(d.Message)
	}
}

func allow(state domain.State) Decision {
	return Decision{Allowed: true, State: state}
}

func forbidden(state domain.State, message string) Decision {
	return Decision{State: state, Reason: ReasonForbidden, Message: message}
}

func locked(state domain.State, message string) Decision {
	return Decision{State: state, Reason: ReasonLocked, Message: message}
}

func notFound(state domain.State, message string) Decision {
	return Decision{State: state, Reason: ReasonNotFound, Message: message}
}
