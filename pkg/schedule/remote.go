package schedule

import (
	"context"

	"github.com/klokku/courseplan/pkg/selection"
)

// Remote is the authoritative store of a user's selections.
type Remote interface {
	FetchSelections(ctx context.Context, userId string) ([]selection.SelectedSection, error)
	// CreateSelection returns selection.ErrDuplicateSelection when the section is already selected.
	CreateSelection(ctx context.Context, s selection.SelectedSection) error
	// DeleteSelection removes one section, or the whole course when sectionIndex is nil.
	// Deleting something absent succeeds.
	DeleteSelection(ctx context.Context, userId string, courseId string, sectionIndex *int) error
}

// FriendFetcher reads another user's selections on behalf of userId.
// Whether the two are friends is for the implementation to decide.
type FriendFetcher interface {
	FetchFriendSelections(ctx context.Context, userId string, friendId string) ([]selection.SelectedSection, error)
}
