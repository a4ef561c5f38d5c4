package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/timevault-dev/timevault/internal/access"
	"github.com/timevault-dev/timevault/internal/domain"
	internal_errors "github.com/timevault-dev/timevault/internal/errors"
	"github.com/timevault-dev/timevault/internal/service"
)

var _ service.CapsuleStorage = (*Storage)(nil)

const capsuleColumns = `id, title, content, visibility, show_countdown, open_date, sealed_at, senders, receivers, created_at`

func (s *Storage) CreateCapsule(ctx context.Context, c *domain.Capsule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	_, err = tx.ExecContext(ctx, `
	INSERT INTO capsules (`+capsuleColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.Id, c.Title, c.Content, string(c.Visibility), c.ShowCountdown,
		c.OpenDate, c.SealedAt, c.Senders, c.Receivers, c.CreatedAt)
	if err != nil {
		return err
	}

	if err := insertImages(ctx, tx, c.Id, c.Images); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Storage) GetCapsule(ctx context.Context, id domain.CapsuleId) (*domain.Capsule, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT `+capsuleColumns+`
	FROM capsules
	WHERE id = $1`, id)

	c, err := scanCapsule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("capsule not found")
		}
		return nil, err
	}

	images, err := s.loadImages(ctx, s.db, []domain.CapsuleId{c.Id})
	if err != nil {
		return nil, err
	}
	c.Images = images[c.Id]
	return c, nil
}

// UpdateCapsule loads the record under a row lock, applies mutate and
// saves. The lock makes the caller's read-check-write atomic against a
// concurrent edit sealing the capsule mid-flight.
func (s *Storage) UpdateCapsule(ctx context.Context, id domain.CapsuleId, mutate func(c *domain.Capsule) error) (*domain.Capsule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	row := tx.QueryRowContext(ctx, `
	SELECT `+capsuleColumns+`
	FROM capsules
	WHERE id = $1
	FOR UPDATE`, id)

	c, err := scanCapsule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("capsule not found")
		}
		return nil, err
	}

	images, err := s.loadImages(ctx, tx, []domain.CapsuleId{c.Id})
	if err != nil {
		return nil, err
	}
	c.Images = images[c.Id]

	if err := mutate(c); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE capsules SET
		title = $2,
		content = $3,
		visibility = $4,
		show_countdown = $5,
		open_date = $6,
		sealed_at = $7,
		senders = $8,
		receivers = $9
	WHERE id = $1`,
		c.Id, c.Title, c.Content, string(c.Visibility), c.ShowCountdown,
		c.OpenDate, c.SealedAt, c.Senders, c.Receivers)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM capsule_images WHERE capsule_id = $1`, c.Id); err != nil {
		return nil, err
	}
	if err := insertImages(ctx, tx, c.Id, c.Images); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

// DeleteCapsule removes the record and returns its last persisted shape
// so the caller can clean up owned media afterwards.
func (s *Storage) DeleteCapsule(ctx context.Context, id domain.CapsuleId) (*domain.Capsule, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	row := tx.QueryRowContext(ctx, `
	SELECT `+capsuleColumns+`
	FROM capsules
	WHERE id = $1
	FOR UPDATE`, id)

	c, err := scanCapsule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NotFound("capsule not found")
		}
		return nil, err
	}

	images, err := s.loadImages(ctx, tx, []domain.CapsuleId{c.Id})
	if err != nil {
		return nil, err
	}
	c.Images = images[c.Id]

	// capsule_images rows go with it via ON DELETE CASCADE
	if _, err := tx.ExecContext(ctx, `DELETE FROM capsules WHERE id = $1`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return c, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Storage) loadImages(ctx context.Context, q queryer, ids []domain.CapsuleId) (map[domain.CapsuleId][]domain.Image, error) {
	rows, err := q.QueryContext(ctx, `
	SELECT capsule_id, name, mime_type, size_bytes
	FROM capsule_images
	WHERE capsule_id = ANY($1)
	ORDER BY capsule_id, position`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := make(map[domain.CapsuleId][]domain.Image)
	for rows.Next() {
		var capsuleId domain.CapsuleId
		var img domain.Image
		if err := rows.Scan(&capsuleId, &img.Name, &img.MimeType, &img.SizeBytes); err != nil {
			return nil, err
		}
		images[capsuleId] = append(images[capsuleId], img)
	}
	return images, rows.Err()
}

func insertImages(ctx context.Context, tx *sql.Tx, id domain.CapsuleId, images []domain.Image) error {
	for i, img := range images {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO capsule_images (capsule_id, name, mime_type, size_bytes, position)
		VALUES ($1, $2, $3, $4, $5)`,
			id, img.Name, img.MimeType, img.SizeBytes, i)
		if err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapsule(row rowScanner) (*domain.Capsule, error) {
	var c domain.Capsule
	var visibility string
	var openDate, sealedAt sql.NullTime

	err := row.Scan(&c.Id, &c.Title, &c.Content, &visibility, &c.ShowCountdown,
		&openDate, &sealedAt, &c.Senders, &c.Receivers, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.Visibility = domain.Visibility(visibility)
	if openDate.Valid {
		t := openDate.Time.UTC()
		c.OpenDate = &t
	}
	if sealedAt.Valid {
		t := sealedAt.Time.UTC()
		c.SealedAt = &t
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

// ListCapsules translates the listing's audience predicate and total
// order to SQL. The listing's Now is bound once as a parameter, so every
// state comparison and the time-remaining sort see the same instant;
// access.Listing.Matches/Less are the reference semantics.
func (s *Storage) ListCapsules(ctx context.Context, listing access.Listing) ([]domain.Capsule, error) {
	where, args := audienceSQL(listing)

	query := `
	SELECT ` + capsuleColumns + `
	FROM capsules
	WHERE ` + where + `
	ORDER BY
		(open_date IS NOT NULL) DESC,
		open_date ASC,             -- ascending time-remaining, Now being fixed
		sealed_at DESC NULLS LAST,
		created_at DESC
	OFFSET $` + fmt.Sprint(len(args)+1) + ` LIMIT $` + fmt.Sprint(len(args)+2)
	args = append(args, listing.Skip, listing.Take)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var capsules []domain.Capsule
	var ids []domain.CapsuleId
	for rows.Next() {
		c, err := scanCapsule(rows)
		if err != nil {
			return nil, err
		}
		capsules = append(capsules, *c)
		ids = append(ids, c.Id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(capsules) == 0 {
		return []domain.Capsule{}, nil
	}

	images, err := s.loadImages(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range capsules {
		capsules[i].Images = images[capsules[i].Id]
	}
	return capsules, nil
}

// audienceSQL builds the WHERE clause for a listing. Every parameter in
// the clause must be referenced, so the numbering shifts per audience:
// audiences that never compare against Now take only the viewer. State
// predicates mirror domain.DeriveState: sealed is open_date >= now (the
// exact-now tie belongs to sealed), opened is open_date < now.
func audienceSQL(listing access.Listing) (string, []any) {
	const (
		draft    = `($2 = ANY(senders) AND open_date IS NULL)`
		sent     = `($2 = ANY(senders))`
		received = `($2 = ANY(receivers) AND open_date IS NOT NULL AND open_date < $1)`

		publicSealed = `(visibility = 'public' AND open_date >= $1 AND show_countdown)`
		publicOpened = `(visibility = 'public' AND open_date IS NOT NULL AND open_date < $1)`
	)

	ownerArgs := []any{listing.Now, listing.Viewer}
	publicArgs := []any{listing.Now}

	switch listing.Audience {
	case access.AudienceDraft:
		return `($1 = ANY(senders) AND open_date IS NULL)`, []any{listing.Viewer}
	case access.AudienceSent:
		return `($1 = ANY(senders))`, []any{listing.Viewer}
	case access.AudienceReceived:
		return received, ownerArgs
	case access.AudienceOwner:
		return "(" + sent + " OR " + received + " OR " + draft + ")", ownerArgs
	case access.AudiencePublicSealed:
		return publicSealed, publicArgs
	case access.AudiencePublicOpened:
		return publicOpened, publicArgs
	default: // access.AudiencePublic
		return "(" + publicSealed + " OR " + publicOpened + ")", publicArgs
	}
}
