package access

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timevault-dev/timevault/internal/domain"
)

func TestProjectViewUnsealed(t *testing.T) {
	c := testCapsule()
	d := AuthorizeView(c, ptr(domain.UserId("u1")), testNow)
	require.True(t, d.Allowed)

	view := ProjectView(c, d)

	assert.Equal(t, c.Id, view.Id)
	assert.Equal(t, "test capsule", view.Title)
	assert.Equal(t, "hello from the past", view.Content)
	assert.Equal(t, domain.VisibilityPrivate, view.Visibility)
	require.NotNil(t, view.ShowCountdown)
	assert.False(t, *view.ShowCountdown)
	require.NotNil(t, view.Images)
	assert.Equal(t, []ImageView{{Name: "photo.jpg", Type: "image/jpeg"}}, *view.Images)
	assert.Equal(t, []domain.UserId{"u1"}, view.Senders)
	assert.Equal(t, []domain.UserId{"u2"}, view.Receivers)
	// drafts have no open date yet
	assert.Nil(t, view.OpenDate)
	assert.Nil(t, view.SealedAt)
}

func TestProjectViewSealedDisclosesOpenDateOnly(t *testing.T) {
	// title/content/images never leave a sealed capsule, not even for
	// the sender who wrote them.
	c := testCapsule(sealed, public, func(c *domain.Capsule) { c.ShowCountdown = true })

	for name, viewer := range map[string]*domain.UserId{
		"sender":    ptr(domain.UserId("u1")),
		"anonymous": nil,
	} {
		t.Run(name, func(t *testing.T) {
			d := AuthorizeView(c, viewer, testNow)
			require.True(t, d.Allowed)

			view := ProjectView(c, d)

			assert.Equal(t, c.Id, view.Id)
			require.NotNil(t, view.OpenDate)
			assert.True(t, view.OpenDate.Equal(*c.OpenDate))
			assert.Equal(t, []domain.UserId{"u1"}, view.Senders)
			assert.Equal(t, []domain.UserId{"u2"}, view.Receivers)

			assert.Empty(t, view.Title)
			assert.Empty(t, view.Content)
			assert.Nil(t, view.Images)
			assert.Empty(t, view.Visibility)
			assert.Nil(t, view.ShowCountdown)
			assert.Nil(t, view.SealedAt)
		})
	}
}

func TestProjectViewSealedJSONAllowList(t *testing.T) {
	c := testCapsule(sealed, public, func(c *domain.Capsule) { c.ShowCountdown = true })
	d := AuthorizeView(c, nil, testNow)
	require.True(t, d.Allowed)

	raw, err := json.Marshal(ProjectView(c, d))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	// strict allow-list: nothing beyond these four may appear
	assert.ElementsMatch(t,
		[]string{"id", "openDate", "senders", "receivers"},
		keys(fields))
}

func TestProjectViewOpened(t *testing.T) {
	c := testCapsule(opened, public)
	d := AuthorizeView(c, nil, testNow)
	require.True(t, d.Allowed)

	view := ProjectView(c, d)

	assert.Equal(t, "test capsule", view.Title)
	assert.Equal(t, "hello from the past", view.Content)
	require.NotNil(t, view.Images)
	assert.Equal(t, []ImageView{{Name: "photo.jpg", Type: "image/jpeg"}}, *view.Images)
	require.NotNil(t, view.OpenDate)
	require.NotNil(t, view.SealedAt)
	assert.Equal(t, domain.VisibilityPublic, view.Visibility)
}

func TestProjectViewNeverDisclosesImageSize(t *testing.T) {
	c := testCapsule(opened, public)
	d := AuthorizeView(c, nil, testNow)

	raw, err := json.Marshal(ProjectView(c, d))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "1024")
	assert.NotContains(t, string(raw), "size")
}

func TestProjectViewDeniedDecision(t *testing.T) {
	c := testCapsule()
	d := AuthorizeView(c, nil, testNow)
	require.False(t, d.Allowed)

	assert.Equal(t, CapsuleView{}, ProjectView(c, d))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
