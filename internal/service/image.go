package service

import (
	"context"
	goerrors "errors"
	"io"

	"github.com/timevault-dev/timevault/internal/access"
	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/errors"
)

type ImageService interface {
	Get(ctx context.Context, viewer *domain.UserId, capsuleId domain.CapsuleId, name string) (io.ReadCloser, string, error)
}

type Image struct {
	storage CapsuleStorage
	media   MediaStorage
	clock   Clock
}

func NewImage(storage CapsuleStorage, media MediaStorage, clock Clock) ImageService {
	return &Image{storage: storage, media: media, clock: clock}
}

// Get streams a single attached image after reapplying the access matrix
// with the stricter sealed rule. Returns the content stream and its mime
// type; the caller owns closing the stream.
func (s *Image) Get(ctx context.Context, viewer *domain.UserId, capsuleId domain.CapsuleId, name string) (io.ReadCloser, string, error) {
	c, err := s.storage.GetCapsule(ctx, capsuleId)
	if err != nil {
		return nil, "", err
	}

	d := access.AuthorizeImage(c, viewer, name, s.clock.Now())
	if !d.Allowed {
		return nil, "", d.Err()
	}

	img := c.FindImage(name)
	rc, err := s.media.Read(ctx, capsuleId, name)
	if err != nil {
		if goerrors.Is(err, ErrMediaNotFound) {
			return nil, "", errors.NotFound("image not found")
		}
		return nil, "", err
	}
	return rc, img.MimeType, nil
}
