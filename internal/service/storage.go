package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/timevault-dev/timevault/internal/access"
	"github.com/timevault-dev/timevault/internal/domain"
)

// CapsuleStorage is the persistence collaborator. UpdateCapsule must run
// mutate under a per-record lock so the guard's read-check-write is
// atomic: without it two concurrent edits could both pass the unsealed
// check and one would silently apply after sealing.
type CapsuleStorage interface {
	CreateCapsule(ctx context.Context, c *domain.Capsule) error
	GetCapsule(ctx context.Context, id domain.CapsuleId) (*domain.Capsule, error)
	UpdateCapsule(ctx context.Context, id domain.CapsuleId, mutate func(c *domain.Capsule) error) (*domain.Capsule, error)
	DeleteCapsule(ctx context.Context, id domain.CapsuleId) (*domain.Capsule, error)
	ListCapsules(ctx context.Context, listing access.Listing) ([]domain.Capsule, error)
}

// ErrMediaNotFound is returned by media backends when the object is absent.
var ErrMediaNotFound = errors.New("media object not found")

// MediaStorage holds capsule image binaries, keyed by capsule id and
// image name.
type MediaStorage interface {
	Save(ctx context.Context, capsuleId domain.CapsuleId, name string, data io.Reader) error
	Read(ctx context.Context, capsuleId domain.CapsuleId, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, capsuleId domain.CapsuleId, name string) error
}

// MediaRef identifies one stored image pending cleanup.
type MediaRef struct {
	CapsuleId domain.CapsuleId
	Name      string
}

// CleanupQueue buffers media deletions that failed after a committed
// capsule delete. Dequeue returns nil when the queue is empty.
type CleanupQueue interface {
	Enqueue(ctx context.Context, ref MediaRef) error
	Dequeue(ctx context.Context) (*MediaRef, error)
}

type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock. Tests substitute a fixed one.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
