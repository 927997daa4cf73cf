package event_bus

const (
	// Published by the selection service after the database accepted the change.
	SelectionCreated EventType = "selection.created"
	SelectionDeleted EventType = "selection.deleted"

	// Published by the schedule store once a mutation was confirmed remotely.
	SelectionAdded   EventType = "schedule.selection.added"
	SelectionRemoved EventType = "schedule.selection.removed"
	// Published by the schedule store whenever a reload replaced the in-memory list.
	SelectionsLoaded EventType = "schedule.selections.loaded"
)

type SelectionChanged struct {
	UserId     string
	CourseId   string
	CourseName string
	// SectionIndex is nil when every section of the course was affected.
	SectionIndex *int
}

type SelectionsReloaded struct {
	UserId string
	Count  int
}
