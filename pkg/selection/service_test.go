package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/klokku/courseplan/internal/event_bus"
	"github.com/klokku/courseplan/pkg/timeslot"
	"github.com/klokku/courseplan/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = user.User{Id: 1, Uid: "alice", Username: "alice", DisplayName: "Alice"}

var ctx = user.WithUser(context.Background(), alice)

var mondayWednesday = timeslot.TimeSlot{
	Days:       []string{"M", "W"},
	Time:       "11:40am - 12:55pm",
	Professor:  "Jae Lee",
	Location:   "Mudd 833",
	Capacity:   120,
	Enrollment: 87,
}

func setupService(t *testing.T) (*ServiceImpl, *RepositoryStub, *event_bus.EventBus) {
	repo := NewRepositoryStub()
	bus := event_bus.NewEventBus()
	t.Cleanup(repo.Reset)
	return NewService(repo, bus), repo, bus
}

func TestServiceImpl_AddSelection(t *testing.T) {
	t.Run("should store the selection for the current user", func(t *testing.T) {
		service, _, _ := setupService(t)

		// when
		err := service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3)

		// then
		require.NoError(t, err)
		selections, err := service.GetSelections(ctx)
		require.NoError(t, err)
		require.Len(t, selections, 1)
		assert.Equal(t, "alice", selections[0].UserId)
		assert.Equal(t, "COMS4111", selections[0].CourseId)
		assert.Equal(t, mondayWednesday, selections[0].SectionData)
		assert.Equal(t, 3, selections[0].Credits)
	})

	t.Run("should snapshot section data", func(t *testing.T) {
		service, _, _ := setupService(t)
		slot := mondayWednesday.Clone()

		// when
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 0, slot, 3))
		slot.Days[0] = "F"

		// then
		selections, _ := service.GetSelections(ctx)
		assert.Equal(t, []string{"M", "W"}, selections[0].SectionData.Days)
	})

	t.Run("should reject a duplicate section", func(t *testing.T) {
		service, _, _ := setupService(t)
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3))

		// when
		err := service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3)

		// then
		assert.ErrorIs(t, err, ErrDuplicateSelection)
		selections, _ := service.GetSelections(ctx)
		assert.Len(t, selections, 1)
	})

	t.Run("should allow a second section of the same course", func(t *testing.T) {
		service, _, _ := setupService(t)
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3))

		// when
		err := service.AddSelection(ctx, "COMS4111", "Databases", 1, mondayWednesday, 3)

		// then
		assert.NoError(t, err)
		selections, _ := service.GetSelections(ctx)
		assert.Len(t, selections, 2)
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		service, _, _ := setupService(t)

		err := service.AddSelection(ctx, " ", "Databases", 0, mondayWednesday, 3)
		assert.ErrorIs(t, err, ErrInvalidSelection)

		err = service.AddSelection(ctx, "COMS4111", "Databases", -1, mondayWednesday, 3)
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})

	t.Run("should fail without a user in context", func(t *testing.T) {
		service, _, _ := setupService(t)

		err := service.AddSelection(context.Background(), "COMS4111", "Databases", 0, mondayWednesday, 3)

		assert.ErrorIs(t, err, user.ErrNoUser)
		assert.Contains(t, err.Error(), "failed to get current user")
	})

	t.Run("should publish selection.created", func(t *testing.T) {
		service, _, bus := setupService(t)
		var received []event_bus.SelectionChanged
		event_bus.SubscribeTyped(bus, event_bus.SelectionCreated, func(e event_bus.EventT[event_bus.SelectionChanged]) error {
			received = append(received, e.Data)
			return nil
		})

		// when
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 2, mondayWednesday, 3))

		// then
		require.Len(t, received, 1)
		assert.Equal(t, "alice", received[0].UserId)
		assert.Equal(t, "COMS4111", received[0].CourseId)
		require.NotNil(t, received[0].SectionIndex)
		assert.Equal(t, 2, *received[0].SectionIndex)
	})

	t.Run("should return repository failures", func(t *testing.T) {
		service, repo, _ := setupService(t)
		repo.SetError(errors.New("connection reset"))

		err := service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3)

		assert.EqualError(t, err, "connection reset")
	})
}

func TestServiceImpl_RemoveSelection(t *testing.T) {
	t.Run("should remove a single section", func(t *testing.T) {
		service, _, _ := setupService(t)
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3))
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 1, mondayWednesday, 3))
		index := 0

		// when
		err := service.RemoveSelection(ctx, "COMS4111", &index)

		// then
		require.NoError(t, err)
		selections, _ := service.GetSelections(ctx)
		require.Len(t, selections, 1)
		assert.Equal(t, 1, selections[0].SectionIndex)
	})

	t.Run("should remove every section of the course without an index", func(t *testing.T) {
		service, _, _ := setupService(t)
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 0, mondayWednesday, 3))
		require.NoError(t, service.AddSelection(ctx, "COMS4111", "Databases", 1, mondayWednesday, 3))
		require.NoError(t, service.AddSelection(ctx, "MATH1201", "Calculus III", 0, mondayWednesday, 3))

		// when
		err := service.RemoveSelection(ctx, "COMS4111", nil)

		// then
		require.NoError(t, err)
		selections, _ := service.GetSelections(ctx)
		require.Len(t, selections, 1)
		assert.Equal(t, "MATH1201", selections[0].CourseId)
	})

	t.Run("should be idempotent and not publish when nothing was removed", func(t *testing.T) {
		service, _, bus := setupService(t)
		published := 0
		bus.Subscribe(event_bus.SelectionDeleted, func(e event_bus.Event) error {
			published++
			return nil
		})

		// when
		err := service.RemoveSelection(ctx, "COMS4111", nil)

		// then
		assert.NoError(t, err)
		assert.Equal(t, 0, published)
	})

	t.Run("should not touch other users' selections", func(t *testing.T) {
		service, _, _ := setupService(t)
		bob := user.WithUser(context.Background(), user.User{Uid: "bob", Username: "bob"})
		require.NoError(t, service.AddSelection(bob, "COMS4111", "Databases", 0, mondayWednesday, 3))

		// when
		require.NoError(t, service.RemoveSelection(ctx, "COMS4111", nil))

		// then
		selections, _ := service.GetSelections(bob)
		assert.Len(t, selections, 1)
	})
}
