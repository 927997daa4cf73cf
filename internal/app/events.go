package app

import (
	"github.com/klokku/courseplan/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

func subscribeSelectionLog(bus *event_bus.EventBus) {
	logChange := func(e event_bus.EventT[event_bus.SelectionChanged]) error {
		entry := log.WithFields(log.Fields{
			"event":    e.Type,
			"user":     e.Data.UserId,
			"courseId": e.Data.CourseId,
		})
		if e.Data.SectionIndex != nil {
			entry = entry.WithField("sectionIndex", *e.Data.SectionIndex)
		}
		entry.Info("selection changed")
		return nil
	}
	event_bus.SubscribeTyped(bus, event_bus.SelectionCreated, logChange)
	event_bus.SubscribeTyped(bus, event_bus.SelectionDeleted, logChange)
}
