package selection

import (
	"context"
	"fmt"

	"github.com/klokku/courseplan/internal/event_bus"
	"github.com/klokku/courseplan/pkg/timeslot"
	"github.com/klokku/courseplan/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetSelections(ctx context.Context) ([]SelectedSection, error)
	AddSelection(ctx context.Context, courseId string, courseName string, sectionIndex int, sectionData timeslot.TimeSlot, credits int) error
	RemoveSelection(ctx context.Context, courseId string, sectionIndex *int) error
}

type ServiceImpl struct {
	repo     Repository
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus}
}

func (s *ServiceImpl) GetSelections(ctx context.Context) ([]SelectedSection, error) {
	userId, err := user.CurrentUid(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.GetSelections(ctx, userId)
}

func (s *ServiceImpl) AddSelection(
	ctx context.Context,
	courseId string,
	courseName string,
	sectionIndex int,
	sectionData timeslot.TimeSlot,
	credits int,
) error {
	userId, err := user.CurrentUid(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	selection := SelectedSection{
		UserId:       userId,
		CourseId:     courseId,
		CourseName:   courseName,
		SectionIndex: sectionIndex,
		SectionData:  sectionData.Clone(),
		Credits:      credits,
	}
	if err := selection.Validate(); err != nil {
		return err
	}

	if _, err := s.repo.CreateSelection(ctx, selection); err != nil {
		return err
	}
	index := sectionIndex
	s.publish(ctx, event_bus.SelectionCreated, event_bus.SelectionChanged{
		UserId:       userId,
		CourseId:     courseId,
		CourseName:   courseName,
		SectionIndex: &index,
	})
	return nil
}

func (s *ServiceImpl) RemoveSelection(ctx context.Context, courseId string, sectionIndex *int) error {
	userId, err := user.CurrentUid(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	deleted, err := s.repo.DeleteSelection(ctx, userId, courseId, sectionIndex)
	if err != nil {
		return err
	}
	log.Debugf("deleted %d selection(s) of course %s for user %s", deleted, courseId, userId)
	if deleted == 0 {
		return nil
	}
	s.publish(ctx, event_bus.SelectionDeleted, event_bus.SelectionChanged{
		UserId:       userId,
		CourseId:     courseId,
		SectionIndex: sectionIndex,
	})
	return nil
}

func (s *ServiceImpl) publish(ctx context.Context, eventType event_bus.EventType, data event_bus.SelectionChanged) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}
