package access

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timevault-dev/timevault/internal/domain"
	internal_errors "github.com/timevault-dev/timevault/internal/errors"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// testCapsule builds a capsule with sensible defaults for matrix tests.
func testCapsule(mutators ...func(*domain.Capsule)) *domain.Capsule {
	past := testNow.Add(-24 * time.Hour)
	c := &domain.Capsule{
		Id:         "cap-1",
		Title:      "test capsule",
		Content:    "hello from the past",
		Visibility: domain.VisibilityPrivate,
		Senders:    domain.UserIds{"u1"},
		Receivers:  domain.UserIds{"u2"},
		CreatedAt:  past,
		Images: []domain.Image{
			{Name: "photo.jpg", MimeType: "image/jpeg", SizeBytes: 1024},
		},
	}
	for _, m := range mutators {
		m(c)
	}
	return c
}

func sealed(c *domain.Capsule) {
	open := testNow.Add(time.Hour)
	sealedAt := testNow.Add(-time.Hour)
	c.OpenDate = &open
	c.SealedAt = &sealedAt
}

func opened(c *domain.Capsule) {
	open := testNow.Add(-time.Hour)
	sealedAt := testNow.Add(-2 * time.Hour)
	c.OpenDate = &open
	c.SealedAt = &sealedAt
}

func public(c *domain.Capsule) { c.Visibility = domain.VisibilityPublic }

func TestAuthorizeViewUnsealed(t *testing.T) {
	tests := []struct {
		name    string
		viewer  *domain.UserId
		allowed bool
	}{
		{"sender allowed", ptr(domain.UserId("u1")), true},
		{"receiver denied", ptr(domain.UserId("u2")), false},
		{"stranger denied", ptr(domain.UserId("u9")), false},
		{"anonymous denied", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// visibility is irrelevant while unsealed; check both
			for _, vis := range []domain.Visibility{domain.VisibilityPrivate, domain.VisibilityPublic} {
				c := testCapsule(func(c *domain.Capsule) { c.Visibility = vis })
				d := AuthorizeView(c, tc.viewer, testNow)

				assert.Equal(t, tc.allowed, d.Allowed)
				assert.Equal(t, domain.StateUnsealed, d.State)
				if !tc.allowed {
					assert.Equal(t, ReasonForbidden, d.Reason)
				}
			}
		})
	}
}

func TestAuthorizeViewSealed(t *testing.T) {
	tests := []struct {
		name          string
		visibility    domain.Visibility
		showCountdown bool
		viewer        *domain.UserId
		allowed       bool
		reason        Reason
	}{
		{"private sender allowed", domain.VisibilityPrivate, false, ptr(domain.UserId("u1")), true, ReasonNone},
		{"private receiver forbidden", domain.VisibilityPrivate, false, ptr(domain.UserId("u2")), false, ReasonForbidden},
		{"private anonymous forbidden", domain.VisibilityPrivate, false, nil, false, ReasonForbidden},
		{"public hidden countdown sender allowed", domain.VisibilityPublic, false, ptr(domain.UserId("u1")), true, ReasonNone},
		{"public hidden countdown stranger locked", domain.VisibilityPublic, false, ptr(domain.UserId("u9")), false, ReasonLocked},
		{"public hidden countdown anonymous locked", domain.VisibilityPublic, false, nil, false, ReasonLocked},
		{"public countdown anonymous allowed", domain.VisibilityPublic, true, nil, true, ReasonNone},
		{"public countdown stranger allowed", domain.VisibilityPublic, true, ptr(domain.UserId("u9")), true, ReasonNone},
		// unset showCountdown behaves as false for private too
		{"private countdown flag ignored", domain.VisibilityPrivate, true, ptr(domain.UserId("u9")), false, ReasonForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testCapsule(sealed, func(c *domain.Capsule) {
				c.Visibility = tc.visibility
				c.ShowCountdown = tc.showCountdown
			})
			d := AuthorizeView(c, tc.viewer, testNow)

			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, domain.StateSealed, d.State)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestAuthorizeViewOpened(t *testing.T) {
	tests := []struct {
		name       string
		visibility domain.Visibility
		viewer     *domain.UserId
		allowed    bool
	}{
		{"private sender allowed", domain.VisibilityPrivate, ptr(domain.UserId("u1")), true},
		{"private receiver allowed", domain.VisibilityPrivate, ptr(domain.UserId("u2")), true},
		{"private stranger forbidden", domain.VisibilityPrivate, ptr(domain.UserId("u9")), false},
		{"private anonymous forbidden", domain.VisibilityPrivate, nil, false},
		{"public anonymous allowed", domain.VisibilityPublic, nil, true},
		{"public stranger allowed", domain.VisibilityPublic, ptr(domain.UserId("u9")), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testCapsule(opened, func(c *domain.Capsule) { c.Visibility = tc.visibility })
			d := AuthorizeView(c, tc.viewer, testNow)

			assert.Equal(t, tc.allowed, d.Allowed)
			assert.Equal(t, domain.StateOpened, d.State)
			if !tc.allowed {
				assert.Equal(t, ReasonForbidden, d.Reason)
			}
		})
	}
}

func TestDecisionErrStatusCodes(t *testing.T) {
	// 403 means "never allowed", 423 means "allowed once it opens";
	// callers rely on the distinction to render countdown vs hard wall.
	c := testCapsule(sealed, public)
	err := AuthorizeView(c, nil, testNow).Err()
	var sc *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, http.StatusLocked, sc.StatusCode)
	assert.EqualError(t, err, "capsule is sealed and cannot be opened yet")

	private := testCapsule(sealed)
	err = AuthorizeView(private, nil, testNow).Err()
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, http.StatusForbidden, sc.StatusCode)

	allowed := AuthorizeView(testCapsule(opened, public), nil, testNow)
	assert.NoError(t, allowed.Err())
}
