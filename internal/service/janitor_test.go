package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJanitorRunOnce(t *testing.T) {
	t.Run("drains the queue", func(t *testing.T) {
		queue := &MockCleanupQueue{Refs: []MediaRef{
			{CapsuleId: "cap-1", Name: "a.png"},
			{CapsuleId: "cap-1", Name: "b.png"},
		}}
		var deletedNames []string
		media := &MockMediaStorage{
			MockDelete: func(ctx context.Context, capsuleId, name string) error {
				deletedNames = append(deletedNames, name)
				return nil
			},
		}

		j := NewMediaJanitor(media, queue)
		deleted, requeued, err := j.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)
		assert.Zero(t, requeued)
		assert.Equal(t, []string{"a.png", "b.png"}, deletedNames)
		assert.Empty(t, queue.Refs)
	})

	t.Run("missing object counts as cleaned", func(t *testing.T) {
		queue := &MockCleanupQueue{Refs: []MediaRef{{CapsuleId: "cap-1", Name: "gone.png"}}}
		media := &MockMediaStorage{
			MockDelete: func(ctx context.Context, capsuleId, name string) error {
				return ErrMediaNotFound
			},
		}

		j := NewMediaJanitor(media, queue)
		deleted, requeued, err := j.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		assert.Zero(t, requeued)
	})

	t.Run("failure requeues and stops the cycle", func(t *testing.T) {
		queue := &MockCleanupQueue{Refs: []MediaRef{
			{CapsuleId: "cap-1", Name: "bad.png"},
			{CapsuleId: "cap-1", Name: "never-reached.png"},
		}}
		media := &MockMediaStorage{
			MockDelete: func(ctx context.Context, capsuleId, name string) error {
				return assert.AnError
			},
		}

		j := NewMediaJanitor(media, queue)
		deleted, requeued, err := j.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.Equal(t, 1, requeued)
		// The failed entry sits behind the untouched one for the next cycle.
		require.Len(t, queue.Refs, 2)
		assert.Equal(t, "never-reached.png", queue.Refs[0].Name)
		assert.Equal(t, "bad.png", queue.Refs[1].Name)
	})
}
