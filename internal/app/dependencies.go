package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/courseplan/internal/config"
	"github.com/klokku/courseplan/internal/event_bus"
	"github.com/klokku/courseplan/internal/utils"
	"github.com/klokku/courseplan/pkg/calendar"
	"github.com/klokku/courseplan/pkg/friend"
	"github.com/klokku/courseplan/pkg/selection"
	"github.com/klokku/courseplan/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	UserService user.Service
	UserHandler *user.Handler

	SelectionRepo    selection.Repository
	SelectionService *selection.ServiceImpl
	SelectionHandler *selection.Handler

	FriendRepo    friend.Repository
	FriendService *friend.ServiceImpl
	FriendHandler *friend.Handler

	Projector       *calendar.Projector
	Exporter        *calendar.Exporter
	CalendarHandler *calendar.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = utils.SystemClock{}
	subscribeSelectionLog(deps.EventBus)

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.SelectionRepo = selection.NewRepository(db)
	deps.SelectionService = selection.NewService(deps.SelectionRepo, deps.EventBus)
	deps.SelectionHandler = selection.NewHandler(deps.SelectionService)

	deps.FriendRepo = friend.NewRepository(db)
	deps.FriendService = friend.NewService(deps.FriendRepo, deps.SelectionRepo, deps.UserService)
	deps.FriendHandler = friend.NewHandler(deps.FriendService)

	grid := calendar.Grid{StartHour: cfg.Schedule.GridStartHour, EndHour: cfg.Schedule.GridEndHour}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	term, err := TermFromConfig(cfg.Term)
	if err != nil {
		return nil, err
	}
	deps.Projector = calendar.NewProjector(grid)
	deps.Exporter = calendar.NewExporter(term, grid, deps.Clock)
	deps.CalendarHandler = calendar.NewHandler(
		deps.Projector,
		deps.Exporter,
		deps.SelectionService.GetSelections,
		deps.FriendService.GetFriendSelections,
	)

	return deps, nil
}

func TermFromConfig(cfg config.Term) (calendar.Term, error) {
	start, end, loc, err := cfg.Dates()
	if err != nil {
		return calendar.Term{}, err
	}
	term := calendar.Term{Start: start, End: end, Location: loc}
	if err := term.Validate(); err != nil {
		return calendar.Term{}, fmt.Errorf("term configuration: %w", err)
	}
	return term, nil
}
