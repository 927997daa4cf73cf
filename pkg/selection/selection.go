package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klokku/courseplan/pkg/timeslot"
)

var ErrDuplicateSelection = errors.New("section already selected")
var ErrInvalidSelection = errors.New("invalid selection")

// SelectedSection records that a user picked one section of a course.
// SectionData is a snapshot of the catalog time slot taken when the section was selected.
type SelectedSection struct {
	UserId       string
	CourseId     string
	CourseName   string
	SectionIndex int // position within the course's times list at selection time, never re-validated
	SectionData  timeslot.TimeSlot
	Credits      int
}

// Key identifies a selection; it is unique per user.
type Key struct {
	UserId       string
	CourseId     string
	SectionIndex int
}

func (s SelectedSection) Key() Key {
	return Key{UserId: s.UserId, CourseId: s.CourseId, SectionIndex: s.SectionIndex}
}

// Clone returns a copy whose section data shares no memory with s.
func (s SelectedSection) Clone() SelectedSection {
	c := s
	c.SectionData = s.SectionData.Clone()
	return c
}

// CloneAll copies a list of selections; the result is never nil.
func CloneAll(sections []SelectedSection) []SelectedSection {
	out := make([]SelectedSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.Clone())
	}
	return out
}

// Validate checks the fields a selection cannot be stored without.
func (s SelectedSection) Validate() error {
	switch {
	case strings.TrimSpace(s.UserId) == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidSelection)
	case strings.TrimSpace(s.CourseId) == "":
		return fmt.Errorf("%w: course id is required", ErrInvalidSelection)
	case s.SectionIndex < 0:
		return fmt.Errorf("%w: section index must not be negative", ErrInvalidSelection)
	case s.Credits < 0:
		return fmt.Errorf("%w: credits must not be negative", ErrInvalidSelection)
	}
	return nil
}
