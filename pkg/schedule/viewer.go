package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/klokku/courseplan/pkg/calendar"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/timeslot"
	log "github.com/sirupsen/logrus"
)

type Mode int

const (
	ModeSelf Mode = iota
	ModeViewing
)

func (m Mode) String() string {
	switch m {
	case ModeSelf:
		return "self"
	case ModeViewing:
		return "viewing"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Viewer decides whose schedule is shown: the signed-in user's own, backed by
// the Store, or a friend's, fetched read-only and kept only while viewing them.
type Viewer struct {
	store     *Store
	friends   FriendFetcher
	projector *calendar.Projector
	timeout   time.Duration

	mu             sync.RWMutex
	mode           Mode
	friendId       string
	generation     uint64
	owner          uint64 // store generation the friend view was opened under
	friendSections []selection.SelectedSection
	err            error
}

func NewViewer(store *Store, friends FriendFetcher, projector *calendar.Projector, timeout time.Duration) *Viewer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Viewer{
		store:     store,
		friends:   friends,
		projector: projector,
		timeout:   timeout,
		mode:      ModeSelf,
	}
}

// ViewFriend switches to friendId's schedule and fetches it, every time.
// A failed fetch keeps the viewer on the friend with an empty list; the error
// is returned and stays available from Err until the next switch.
func (v *Viewer) ViewFriend(ctx context.Context, friendId string) error {
	friendId = strings.TrimSpace(friendId)
	if friendId == "" {
		return ErrInvalidFriend
	}
	userId, owner := v.store.identity()
	if userId == "" {
		return ErrNoUser
	}

	v.mu.Lock()
	v.mode = ModeViewing
	v.friendId = friendId
	v.generation++
	v.owner = owner
	generation := v.generation
	v.friendSections = []selection.SelectedSection{}
	v.err = nil
	v.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	sections, err := v.friends.FetchFriendSelections(fetchCtx, userId, friendId)

	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		log.Debugf("discarding schedule of %s: viewer moved on", friendId)
		return nil
	}
	if v.signedOut() {
		log.Debugf("discarding schedule of %s: %s is no longer signed in", friendId, userId)
		v.resetLocked()
		return nil
	}
	if err != nil {
		v.err = fmt.Errorf("%w: schedule of %s: %w", ErrTransientIO, friendId, err)
		return v.err
	}
	v.friendSections = selection.CloneAll(sections)
	return nil
}

// ViewSelf returns to the user's own schedule and drops the friend's.
func (v *Viewer) ViewSelf() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetLocked()
}

func (v *Viewer) resetLocked() {
	v.mode = ModeSelf
	v.friendId = ""
	v.generation++
	v.friendSections = nil
	v.err = nil
}

// signedOut reports whether the store changed identity since the friend view was opened.
// Callers hold v.mu.
func (v *Viewer) signedOut() bool {
	if v.mode != ModeViewing {
		return false
	}
	_, generation := v.store.identity()
	return generation != v.owner
}

// current falls back to the user's own schedule once the identity a friend
// view belongs to is gone.
func (v *Viewer) current() {
	v.mu.RLock()
	stale := v.signedOut()
	v.mu.RUnlock()
	if !stale {
		return
	}
	v.mu.Lock()
	if v.signedOut() {
		v.resetLocked()
	}
	v.mu.Unlock()
}

// SignOut returns to the user's own schedule and signs the store out.
func (v *Viewer) SignOut() {
	v.ViewSelf()
	v.store.SignOut()
}

// Mode returns the current mode and, when viewing, whose schedule is shown.
func (v *Viewer) Mode() (Mode, string) {
	v.current()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode, v.friendId
}

// Err is the failure of the last friend fetch, if the viewer is still showing that friend.
func (v *Viewer) Err() error {
	v.current()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func (v *Viewer) CanMutate() bool {
	v.current()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode == ModeSelf
}

// Sections is the list currently shown. Own and friend selections are never mixed.
func (v *Viewer) Sections() []selection.SelectedSection {
	v.current()
	v.mu.RLock()
	if v.mode == ModeViewing {
		defer v.mu.RUnlock()
		return selection.CloneAll(v.friendSections)
	}
	v.mu.RUnlock()
	return v.store.Sections()
}

func (v *Viewer) Events() []calendar.Event {
	return v.projector.Project(v.Sections())
}

func (v *Viewer) Add(ctx context.Context, courseId string, courseName string, sectionIndex int, sectionData timeslot.TimeSlot, credits int) error {
	if !v.CanMutate() {
		return ErrReadOnly
	}
	return v.store.Add(ctx, v.store.UserId(), courseId, courseName, sectionIndex, sectionData, credits)
}

func (v *Viewer) Remove(ctx context.Context, courseId string, sectionIndex int) error {
	if !v.CanMutate() {
		return ErrReadOnly
	}
	return v.store.Remove(ctx, v.store.UserId(), courseId, sectionIndex)
}

func (v *Viewer) RemoveCourse(ctx context.Context, courseId string) error {
	if !v.CanMutate() {
		return ErrReadOnly
	}
	return v.store.RemoveCourse(ctx, v.store.UserId(), courseId)
}

func (v *Viewer) Grid() calendar.Grid {
	return v.projector.Grid()
}
