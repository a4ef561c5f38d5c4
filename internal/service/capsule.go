package service

import (
	"context"
	goerrors "errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/timevault-dev/timevault/internal/access"
	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/errors"
	"github.com/timevault-dev/timevault/internal/logger"
)

type CapsuleService interface {
	Create(ctx context.Context, caller domain.UserId, data domain.CapsuleCreationData) (domain.CapsuleId, error)
	Get(ctx context.Context, viewer *domain.UserId, id domain.CapsuleId) (access.CapsuleView, error)
	Edit(ctx context.Context, caller domain.UserId, id domain.CapsuleId, patch domain.CapsulePatch) error
	Delete(ctx context.Context, caller domain.UserId, id domain.CapsuleId) error
	ListOwner(ctx context.Context, caller domain.UserId, audience access.Audience, skip, take int) ([]access.CapsuleView, error)
	ListPublic(ctx context.Context, viewer *domain.UserId, audience access.Audience, skip, take int) ([]access.CapsuleView, error)
}

type Capsule struct {
	storage   CapsuleStorage
	media     MediaStorage
	queue     CleanupQueue
	clock     Clock
	sanitizer *bluemonday.Policy
}

func NewCapsule(storage CapsuleStorage, media MediaStorage, queue CleanupQueue, clock Clock) CapsuleService {
	return &Capsule{
		storage:   storage,
		media:     media,
		queue:     queue,
		clock:     clock,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *Capsule) Create(ctx context.Context, caller domain.UserId, data domain.CapsuleCreationData) (domain.CapsuleId, error) {
	now := s.clock.Now()

	if d := access.AuthorizeMutation(access.MutationCreate, nil, &caller, now); !d.Allowed {
		return "", d.Err()
	}

	title := s.sanitizer.Sanitize(data.Title)
	if title == "" {
		return "", errors.Validation("title is required")
	}
	if data.Visibility != domain.VisibilityPublic && data.Visibility != domain.VisibilityPrivate {
		return "", errors.Validation("visibility must be public or private")
	}
	if err := validateImages(data.Images); err != nil {
		return "", err
	}

	c := &domain.Capsule{
		Id:            uuid.NewString(),
		Title:         title,
		Content:       s.sanitizer.Sanitize(data.Content),
		Images:        data.Images,
		Visibility:    data.Visibility,
		ShowCountdown: data.ShowCountdown,
		Senders:       mergeSenders(caller, data.Collaborators),
		Receivers:     dedupe(data.Receivers),
		CreatedAt:     now,
	}
	if data.OpenDate != nil {
		// Created directly sealed: openDate and sealedAt are stamped
		// together from the same clock sample.
		openDate := *data.OpenDate
		sealedAt := now
		c.OpenDate = &openDate
		c.SealedAt = &sealedAt
	}

	if err := s.storage.CreateCapsule(ctx, c); err != nil {
		return "", err
	}
	return c.Id, nil
}

func (s *Capsule) Get(ctx context.Context, viewer *domain.UserId, id domain.CapsuleId) (access.CapsuleView, error) {
	c, err := s.storage.GetCapsule(ctx, id)
	if err != nil {
		return access.CapsuleView{}, err
	}

	d := access.AuthorizeView(c, viewer, s.clock.Now())
	if !d.Allowed {
		return access.CapsuleView{}, d.Err()
	}
	return access.ProjectView(c, d), nil
}

// Edit applies a partial update. The guard check and the write happen
// inside the storage's per-record lock, so a capsule cannot seal between
// the unsealed check and the save.
func (s *Capsule) Edit(ctx context.Context, caller domain.UserId, id domain.CapsuleId, patch domain.CapsulePatch) error {
	now := s.clock.Now()

	_, err := s.storage.UpdateCapsule(ctx, id, func(c *domain.Capsule) error {
		if d := access.AuthorizeMutation(access.MutationEdit, c, &caller, now); !d.Allowed {
			return d.Err()
		}
		return s.applyPatch(c, caller, patch, now)
	})
	return err
}

func (s *Capsule) applyPatch(c *domain.Capsule, caller domain.UserId, patch domain.CapsulePatch, now time.Time) error {
	if patch.Title != nil {
		title := s.sanitizer.Sanitize(*patch.Title)
		if title == "" {
			return errors.Validation("title is required")
		}
		c.Title = title
	}
	if patch.Content != nil {
		c.Content = s.sanitizer.Sanitize(*patch.Content)
	}
	if patch.Visibility != nil {
		if *patch.Visibility != domain.VisibilityPublic && *patch.Visibility != domain.VisibilityPrivate {
			return errors.Validation("visibility must be public or private")
		}
		c.Visibility = *patch.Visibility
	}
	if patch.ShowCountdown != nil {
		c.ShowCountdown = *patch.ShowCountdown
	}
	if patch.Images != nil {
		if err := validateImages(*patch.Images); err != nil {
			return err
		}
		c.Images = *patch.Images
	}
	if patch.Collaborators != nil {
		c.Senders = mergeSenders(caller, *patch.Collaborators)
	}
	if patch.Receivers != nil {
		c.Receivers = dedupe(*patch.Receivers)
	}
	if patch.OpenDate != nil && (c.OpenDate == nil || !c.OpenDate.Equal(*patch.OpenDate)) {
		// Introducing or changing the open date seals the capsule;
		// sealedAt is stamped in the same mutation, never by callers.
		openDate := *patch.OpenDate
		sealedAt := now
		c.OpenDate = &openDate
		c.SealedAt = &sealedAt
	}

	if len(c.Senders) == 0 {
		return errors.Validation("capsule must keep at least one sender")
	}
	return nil
}

// Delete removes the record first; media cleanup is best-effort
// afterwards. A cleanup failure never resurrects the capsule — the
// failed objects go onto the retry queue instead.
func (s *Capsule) Delete(ctx context.Context, caller domain.UserId, id domain.CapsuleId) error {
	c, err := s.storage.GetCapsule(ctx, id)
	if err != nil {
		return err
	}

	if d := access.AuthorizeMutation(access.MutationDelete, c, &caller, s.clock.Now()); !d.Allowed {
		return d.Err()
	}

	deleted, err := s.storage.DeleteCapsule(ctx, id)
	if err != nil {
		return err
	}

	for _, img := range deleted.Images {
		if err := s.media.Delete(ctx, deleted.Id, img.Name); err != nil && !goerrors.Is(err, ErrMediaNotFound) {
			logger.Log.Warn("media cleanup failed, queueing retry",
				"capsuleId", deleted.Id, "image", img.Name, "error", err)
			ref := MediaRef{CapsuleId: deleted.Id, Name: img.Name}
			if qErr := s.queue.Enqueue(ctx, ref); qErr != nil {
				logger.Log.Error("failed to enqueue media cleanup",
					"capsuleId", deleted.Id, "image", img.Name, "error", qErr)
			}
		}
	}
	return nil
}

func (s *Capsule) ListOwner(ctx context.Context, caller domain.UserId, audience access.Audience, skip, take int) ([]access.CapsuleView, error) {
	listing, err := access.BuildListing(audience, &caller, skip, take, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.list(ctx, listing, &caller)
}

func (s *Capsule) ListPublic(ctx context.Context, viewer *domain.UserId, audience access.Audience, skip, take int) ([]access.CapsuleView, error) {
	listing, err := access.BuildListing(audience, nil, skip, take, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.list(ctx, listing, viewer)
}

func (s *Capsule) list(ctx context.Context, listing access.Listing, viewer *domain.UserId) ([]access.CapsuleView, error) {
	records, err := s.storage.ListCapsules(ctx, listing)
	if err != nil {
		return nil, err
	}

	// Each record is independently authorized and projected at the
	// listing's Now, so a capsule crossing sealed -> opened mid-query
	// still gets a consistent shape.
	views := make([]access.CapsuleView, 0, len(records))
	for i := range records {
		d := access.AuthorizeView(&records[i], viewer, listing.Now)
		if !d.Allowed {
			continue
		}
		views = append(views, access.ProjectView(&records[i], d))
	}
	return views, nil
}

// validateImages rejects names that could reach outside an object's
// directory in the media store; names become storage keys verbatim.
func validateImages(images []domain.Image) error {
	for _, img := range images {
		if img.Name == "" {
			return errors.Validation("image name is required")
		}
		if strings.ContainsAny(img.Name, `/\`) || strings.Contains(img.Name, "..") {
			return errors.Validation("image name must not contain path separators or '..'")
		}
	}
	return nil
}

func mergeSenders(caller domain.UserId, collaborators []domain.UserId) domain.UserIds {
	return dedupe(append([]domain.UserId{caller}, collaborators...))
}

func dedupe(ids []domain.UserId) domain.UserIds {
	out := make(domain.UserIds, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
