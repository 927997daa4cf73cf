package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/klokku/courseplan/pkg/calendar"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/timeslot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupViewer(t *testing.T) (*Viewer, *Store, *RemoteStub) {
	store, remote, _ := setupStore(t)
	require.NoError(t, store.Load(ctx, "me"))
	require.NoError(t, store.Add(ctx, "me", "COMS1004", "CS1", 0, slot, 3))
	require.NoError(t, remote.Put(selection.SelectedSection{
		UserId:      "friend",
		CourseId:    "PHYS1601",
		CourseName:  "Physics I",
		SectionData: timeslot.TimeSlot{Days: []string{"T", "R"}, Time: "1:10pm - 2:25pm"},
		Credits:     3,
	}))
	remote.Befriend("me", "friend")
	viewer := NewViewer(store, remote, calendar.NewProjector(calendar.DefaultGrid), time.Second)
	return viewer, store, remote
}

func TestViewer_StartsInSelfMode(t *testing.T) {
	viewer, _, _ := setupViewer(t)

	mode, friendId := viewer.Mode()

	assert.Equal(t, ModeSelf, mode)
	assert.Equal(t, "", friendId)
	assert.True(t, viewer.CanMutate())
	require.Len(t, viewer.Sections(), 1)
	assert.Equal(t, "COMS1004", viewer.Sections()[0].CourseId)
	assert.Len(t, viewer.Events(), 2)
}

func TestViewer_ViewFriend(t *testing.T) {
	t.Run("should show only the friend's schedule", func(t *testing.T) {
		viewer, _, _ := setupViewer(t)

		// when
		err := viewer.ViewFriend(ctx, "friend")

		// then
		require.NoError(t, err)
		mode, friendId := viewer.Mode()
		assert.Equal(t, ModeViewing, mode)
		assert.Equal(t, "friend", friendId)
		sections := viewer.Sections()
		require.Len(t, sections, 1)
		assert.Equal(t, "PHYS1601", sections[0].CourseId)
		events := viewer.Events()
		require.Len(t, events, 2)
		assert.Equal(t, time.Tuesday, events[0].Day)
		assert.Equal(t, time.Thursday, events[1].Day)
		assert.NoError(t, viewer.Err())
	})

	t.Run("should block mutations and leave the own schedule unchanged", func(t *testing.T) {
		viewer, store, _ := setupViewer(t)
		before := store.Sections()
		require.NoError(t, viewer.ViewFriend(ctx, "friend"))

		// when
		addErr := viewer.Add(ctx, "ECON1105", "Economics", 0, slot, 4)
		removeErr := viewer.Remove(ctx, "COMS1004", 0)
		removeCourseErr := viewer.RemoveCourse(ctx, "COMS1004")

		// then
		assert.ErrorIs(t, addErr, ErrReadOnly)
		assert.ErrorIs(t, removeErr, ErrReadOnly)
		assert.ErrorIs(t, removeCourseErr, ErrReadOnly)
		assert.False(t, viewer.CanMutate())

		viewer.ViewSelf()
		assert.Equal(t, before, viewer.Sections())
		assert.True(t, viewer.CanMutate())
	})

	t.Run("should stay on the friend with an empty list when fetching fails", func(t *testing.T) {
		viewer, _, remote := setupViewer(t)
		remote.SetFriendError(errors.New("502 Bad Gateway"))

		// when
		err := viewer.ViewFriend(ctx, "friend")

		// then
		assert.ErrorIs(t, err, ErrTransientIO)
		mode, friendId := viewer.Mode()
		assert.Equal(t, ModeViewing, mode)
		assert.Equal(t, "friend", friendId)
		assert.Empty(t, viewer.Sections())
		assert.NotNil(t, viewer.Sections())
		assert.Empty(t, viewer.Events())
		assert.ErrorIs(t, viewer.Err(), ErrTransientIO)
	})

	t.Run("should refetch on every entry", func(t *testing.T) {
		viewer, _, remote := setupViewer(t)
		require.NoError(t, viewer.ViewFriend(ctx, "friend"))
		viewer.ViewSelf()
		require.NoError(t, remote.Put(selection.SelectedSection{UserId: "friend", CourseId: "MATH1201"}))

		// when
		require.NoError(t, viewer.ViewFriend(ctx, "friend"))

		// then
		assert.Equal(t, 2, remote.FriendCalls())
		assert.Len(t, viewer.Sections(), 2)
	})

	t.Run("should discard a response for a session that was left", func(t *testing.T) {
		viewer, _, remote := setupViewer(t)
		entered, release := remote.Hold("friend")

		done := make(chan error)
		go func() { done <- viewer.ViewFriend(ctx, "friend") }()
		<-entered

		// when
		viewer.ViewSelf()
		release()

		// then
		assert.NoError(t, <-done)
		mode, _ := viewer.Mode()
		assert.Equal(t, ModeSelf, mode)
		require.Len(t, viewer.Sections(), 1)
		assert.Equal(t, "COMS1004", viewer.Sections()[0].CourseId)
	})

	t.Run("should require a friend id and a signed-in user", func(t *testing.T) {
		viewer, store, _ := setupViewer(t)

		assert.ErrorIs(t, viewer.ViewFriend(ctx, " "), ErrInvalidFriend)

		store.SignOut()
		assert.ErrorIs(t, viewer.ViewFriend(ctx, "friend"), ErrNoUser)
	})
}

func TestViewer_FollowsStoreIdentity(t *testing.T) {
	t.Run("should drop a friend fetch that returns after the store signed out", func(t *testing.T) {
		viewer, store, remote := setupViewer(t)
		entered, release := remote.Hold("friend")

		done := make(chan error)
		go func() { done <- viewer.ViewFriend(ctx, "friend") }()
		<-entered

		// when
		store.SignOut()
		release()

		// then
		assert.NoError(t, <-done)
		mode, friendId := viewer.Mode()
		assert.Equal(t, ModeSelf, mode)
		assert.Equal(t, "", friendId)
		assert.Empty(t, viewer.Sections())
		assert.Empty(t, viewer.Events())
	})

	t.Run("should drop a friend fetch that returns after another user signed in", func(t *testing.T) {
		viewer, store, remote := setupViewer(t)
		entered, release := remote.Hold("friend")

		done := make(chan error)
		go func() { done <- viewer.ViewFriend(ctx, "friend") }()
		<-entered

		// when
		require.NoError(t, store.Load(ctx, "someone-else"))
		release()

		// then
		assert.NoError(t, <-done)
		mode, _ := viewer.Mode()
		assert.Equal(t, ModeSelf, mode)
		assert.Empty(t, viewer.Sections())
		assert.True(t, viewer.CanMutate())
	})

	t.Run("should leave an open friend view when the store signs out", func(t *testing.T) {
		viewer, store, _ := setupViewer(t)
		require.NoError(t, viewer.ViewFriend(ctx, "friend"))
		require.Len(t, viewer.Sections(), 1)

		// when
		store.SignOut()

		// then
		mode, friendId := viewer.Mode()
		assert.Equal(t, ModeSelf, mode)
		assert.Equal(t, "", friendId)
		assert.Empty(t, viewer.Sections())
		assert.NoError(t, viewer.Err())
	})

	t.Run("should keep the friend view across a reload of the same user", func(t *testing.T) {
		viewer, store, _ := setupViewer(t)
		require.NoError(t, viewer.ViewFriend(ctx, "friend"))

		// when
		require.NoError(t, store.Load(ctx, "me"))

		// then
		mode, _ := viewer.Mode()
		assert.Equal(t, ModeViewing, mode)
		require.Len(t, viewer.Sections(), 1)
		assert.Equal(t, "PHYS1601", viewer.Sections()[0].CourseId)
	})
}

func TestViewer_SelfModeDelegatesToStore(t *testing.T) {
	viewer, store, _ := setupViewer(t)

	require.NoError(t, viewer.Add(ctx, "ECON1105", "Economics", 0, slot, 4))
	assert.True(t, store.IsSelected("ECON1105", 0))

	require.NoError(t, viewer.Remove(ctx, "ECON1105", 0))
	assert.False(t, store.IsSelected("ECON1105", 0))

	require.NoError(t, viewer.RemoveCourse(ctx, "COMS1004"))
	assert.Empty(t, viewer.Sections())
}

func TestViewer_SignOut(t *testing.T) {
	viewer, store, _ := setupViewer(t)
	require.NoError(t, viewer.ViewFriend(ctx, "friend"))

	viewer.SignOut()

	mode, _ := viewer.Mode()
	assert.Equal(t, ModeSelf, mode)
	assert.Equal(t, "", store.UserId())
	assert.Empty(t, viewer.Sections())
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "self", ModeSelf.String())
	assert.Equal(t, "viewing", ModeViewing.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
}
