package domain

import "github.com/lib/pq"

type (
	UserId    = string
	CapsuleId = string

	// UserIds maps onto a postgres text[] column.
	UserIds = pq.StringArray
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// State is the derived capsule lifecycle state. It is never persisted:
// time passes between writes, so it is recomputed from OpenDate on every read.
type State string

const (
	StateUnsealed State = "unsealed"
	StateSealed   State = "sealed"
	StateOpened   State = "opened"
)
