package access

import (
	"time"

	"github.com/timevault-dev/timevault/internal/domain"
)

type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationEdit
	MutationDelete
)

// AuthorizeMutation gates writes. capsule is nil for create.
//
// Create needs an authenticated caller. Edit needs a sender AND the
// unsealed state: a sender hitting a sealed or opened capsule gets a
// locked denial, distinct from the non-sender forbidden. Delete needs a
// sender but carries no state restriction; any sender may delete a
// sealed or opened capsule.
func AuthorizeMutation(kind MutationKind, capsule *domain.Capsule, viewer *domain.UserId, now time.Time) Decision {
	if viewer == nil {
		return forbidden(domain.StateUnsealed, "authentication required")
	}

	if kind == MutationCreate {
		return allow(domain.StateUnsealed)
	}

	state := capsule.State(now)
	if !capsule.IsSentBy(*viewer) {
		if kind == MutationDelete {
			return forbidden(state, "you are not allowed to delete this capsule")
		}
		return forbidden(state, "you are not allowed to edit this capsule")
	}

	if kind == MutationEdit && state != domain.StateUnsealed {
		return locked(state, "capsule is sealed and can not be edited")
	}

	return allow(state)
}
