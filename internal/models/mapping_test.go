package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeRef(t *testing.T) {
	objectiveID := uuid.New()
	bulletID := uuid.New()
	subBulletID := uuid.New()

	t.Run("objective only", func(t *testing.T) {
		ref, err := NewNodeRef(&objectiveID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, NodeRef{Level: LevelObjective, ID: objectiveID}, ref)
	})

	t.Run("bullet only", func(t *testing.T) {
		ref, err := NewNodeRef(nil, &bulletID, nil)
		require.NoError(t, err)
		assert.Equal(t, NodeRef{Level: LevelBullet, ID: bulletID}, ref)
	})

	t.Run("sub-bullet only", func(t *testing.T) {
		ref, err := NewNodeRef(nil, nil, &subBulletID)
		require.NoError(t, err)
		assert.Equal(t, NodeRef{Level: LevelSubBullet, ID: subBulletID}, ref)
	})

	t.Run("no level", func(t *testing.T) {
		_, err := NewNodeRef(nil, nil, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("two levels", func(t *testing.T) {
		_, err := NewNodeRef(&objectiveID, &bulletID, nil)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("all three levels", func(t *testing.T) {
		_, err := NewNodeRef(&objectiveID, &bulletID, &subBulletID)
		assert.ErrorIs(t, err, ErrValidation)
	})
}
