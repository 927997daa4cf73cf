package selection

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type RepositoryStub struct {
	mu         sync.RWMutex
	selections []SelectedSection // insertion order
	err        error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (r *RepositoryStub) GetSelections(ctx context.Context, userId string) ([]SelectedSection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.err != nil {
		return nil, r.err
	}
	result := make([]SelectedSection, 0, len(r.selections))
	for _, s := range r.selections {
		if s.UserId == userId {
			result = append(result, s.Clone())
		}
	}
	return result, nil
}

func (r *RepositoryStub) CreateSelection(ctx context.Context, selection SelectedSection) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return uuid.Nil, r.err
	}
	for _, s := range r.selections {
		if s.Key() == selection.Key() {
			return uuid.Nil, ErrDuplicateSelection
		}
	}
	r.selections = append(r.selections, selection.Clone())
	return uuid.New(), nil
}

func (r *RepositoryStub) DeleteSelection(ctx context.Context, userId string, courseId string, sectionIndex *int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return 0, r.err
	}
	kept := r.selections[:0]
	deleted := 0
	for _, s := range r.selections {
		if s.UserId == userId && s.CourseId == courseId && (sectionIndex == nil || *sectionIndex == s.SectionIndex) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	r.selections = kept
	return deleted, nil
}

// SetError makes every following call fail with err (nil restores normal behaviour).
func (r *RepositoryStub) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections = nil
	r.err = nil
}
