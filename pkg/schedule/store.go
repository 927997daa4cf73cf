package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/klokku/courseplan/internal/event_bus"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/timeslot"
	log "github.com/sirupsen/logrus"
)

const DefaultTimeout = 10 * time.Second

// Store holds the signed-in user's selections. The list is only ever replaced
// by a snapshot fetched from the remote, never patched locally: every
// successful mutation is followed by a reload.
type Store struct {
	remote  Remote
	bus     *event_bus.EventBus
	timeout time.Duration

	writeMu sync.Mutex // one mutation in flight

	mu          sync.RWMutex
	userId      string
	generation  uint64 // bumped on identity change
	issued      uint64 // last fetch sequence handed out
	applied     uint64 // sequence of the snapshot currently held
	sections    []selection.SelectedSection
	highlighted string
}

func NewStore(remote Remote, bus *event_bus.EventBus, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		remote:   remote,
		bus:      bus,
		timeout:  timeout,
		sections: []selection.SelectedSection{},
	}
}

// Load replaces the list with the remote snapshot of userId. Switching to a
// different user empties the list first and invalidates fetches still in flight
// for the previous one. On failure the list is left as it was and an error
// wrapping ErrTransientIO is returned.
func (s *Store) Load(ctx context.Context, userId string) error {
	userId = strings.TrimSpace(userId)
	if userId == "" {
		return ErrNoUser
	}

	s.mu.Lock()
	if userId != s.userId {
		s.switchIdentity(userId)
	}
	s.mu.Unlock()

	return s.fetch(ctx, userId)
}

// SignOut forgets the current user. Results of fetches still in flight are discarded.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchIdentity("")
}

func (s *Store) switchIdentity(userId string) {
	log.Debugf("schedule identity changes from %q to %q", s.userId, userId)
	s.userId = userId
	s.generation++
	s.applied = 0
	s.sections = []selection.SelectedSection{}
	s.highlighted = ""
}

// fetch loads the snapshot of userId if userId is still the store's identity.
func (s *Store) fetch(ctx context.Context, userId string) error {
	s.mu.Lock()
	if s.userId != userId {
		s.mu.Unlock()
		log.Debugf("skipping reload for %s, store now belongs to %q", userId, s.userId)
		return nil
	}
	s.issued++
	generation, seq := s.generation, s.issued
	s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	sections, err := s.remote.FetchSelections(fetchCtx, userId)

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		log.Debugf("discarding selections fetched for %s: identity changed", userId)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: load selections of %s: %w", ErrTransientIO, userId, err)
	}
	if seq < s.applied {
		s.mu.Unlock()
		log.Debugf("discarding selections fetched for %s: a newer snapshot is already applied", userId)
		return nil
	}
	s.sections = selection.CloneAll(sections)
	s.applied = seq
	count := len(s.sections)
	s.mu.Unlock()

	s.publish(ctx, event_bus.SelectionsLoaded, event_bus.SelectionsReloaded{UserId: userId, Count: count})
	return nil
}

// Add selects a section for userId and reloads. A section that is already
// selected yields selection.ErrDuplicateSelection; remote failures wrap ErrTransientIO.
// sectionData is stored as a snapshot; later changes to the catalog value do not reach it.
func (s *Store) Add(
	ctx context.Context,
	userId string,
	courseId string,
	courseName string,
	sectionIndex int,
	sectionData timeslot.TimeSlot,
	credits int,
) error {
	userId = strings.TrimSpace(userId)
	if userId == "" {
		return ErrNoUser
	}
	sel := selection.SelectedSection{
		UserId:       userId,
		CourseId:     courseId,
		CourseName:   courseName,
		SectionIndex: sectionIndex,
		SectionData:  sectionData.Clone(),
		Credits:      credits,
	}
	if err := sel.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.remote.CreateSelection(ctx, sel)
	})
	if err != nil {
		if errors.Is(err, selection.ErrDuplicateSelection) {
			return err
		}
		return fmt.Errorf("%w: add %s/%d: %w", ErrTransientIO, courseId, sectionIndex, err)
	}

	s.reload(ctx, userId)
	index := sectionIndex
	s.publish(ctx, event_bus.SelectionAdded, event_bus.SelectionChanged{
		UserId:       userId,
		CourseId:     courseId,
		CourseName:   courseName,
		SectionIndex: &index,
	})
	return nil
}

// Remove drops one section of a course. Removing a section that is not selected succeeds.
func (s *Store) Remove(ctx context.Context, userId string, courseId string, sectionIndex int) error {
	return s.remove(ctx, userId, courseId, &sectionIndex)
}

// RemoveCourse drops every selected section of a course.
func (s *Store) RemoveCourse(ctx context.Context, userId string, courseId string) error {
	return s.remove(ctx, userId, courseId, nil)
}

func (s *Store) remove(ctx context.Context, userId string, courseId string, sectionIndex *int) error {
	userId = strings.TrimSpace(userId)
	if userId == "" {
		return ErrNoUser
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.remote.DeleteSelection(ctx, userId, courseId, sectionIndex)
	})
	if err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrTransientIO, courseId, err)
	}

	s.reload(ctx, userId)
	s.mu.Lock()
	if s.userId == userId && s.highlighted == courseId && !s.hasCourse(courseId) {
		s.highlighted = ""
	}
	s.mu.Unlock()
	s.publish(ctx, event_bus.SelectionRemoved, event_bus.SelectionChanged{
		UserId:       userId,
		CourseId:     courseId,
		SectionIndex: sectionIndex,
	})
	return nil
}

// reload follows a successful mutation. The mutation already happened remotely,
// so a failed reload is only logged.
func (s *Store) reload(ctx context.Context, userId string) {
	if err := s.fetch(ctx, userId); err != nil {
		log.Warnf("selections of %s changed but could not be reloaded: %v", userId, err)
	}
}

func (s *Store) withTimeout(ctx context.Context, f func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return f(ctx)
}

func (s *Store) IsSelected(courseId string, sectionIndex int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sel := range s.sections {
		if sel.CourseId == courseId && sel.SectionIndex == sectionIndex {
			return true
		}
	}
	return false
}

// Sections returns a copy of the current list; it is never nil.
func (s *Store) Sections() []selection.SelectedSection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selection.CloneAll(s.sections)
}

func (s *Store) UserId() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userId
}

// identity returns the signed-in user and the generation that changes with every switch.
func (s *Store) identity() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userId, s.generation
}

// TotalCredits counts each course once, however many of its sections are selected.
func (s *Store) TotalCredits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perCourse := make(map[string]int, len(s.sections))
	for _, sel := range s.sections {
		perCourse[sel.CourseId] = max(perCourse[sel.CourseId], sel.Credits)
	}
	total := 0
	for _, credits := range perCourse {
		total += credits
	}
	return total
}

// Highlight marks a course as emphasized. It does not need to be selected;
// an empty courseId clears the highlight.
func (s *Store) Highlight(courseId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlighted = courseId
}

func (s *Store) ClearHighlight() {
	s.Highlight("")
}

func (s *Store) Highlighted() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlighted, s.highlighted != ""
}

func (s *Store) hasCourse(courseId string) bool {
	for _, sel := range s.sections {
		if sel.CourseId == courseId {
			return true
		}
	}
	return false
}

func (s *Store) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("failed to publish %s: %v", eventType, err)
	}
}
