package app

import (
	"database/sql"

	"github.com/schedra/schedra/internal/config"
	"github.com/schedra/schedra/internal/utils"
	"github.com/schedra/schedra/pkg/agenda"
	"github.com/schedra/schedra/pkg/event"
	"github.com/schedra/schedra/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	UserService user.Service
	UserHandler *user.Handler

	EventRepo    event.Repository
	EventService event.Service
	EventHandler *event.Handler

	AgendaService *agenda.Service
	AgendaHandler *agenda.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.EventRepo = event.NewRepository(db)
	deps.EventService = event.NewService(deps.EventRepo)
	deps.EventHandler = event.NewHandler(deps.EventService)

	deps.AgendaService = agenda.NewService(deps.EventRepo)
	deps.AgendaHandler = agenda.NewHandler(deps.AgendaService, deps.Clock)

	return deps
}
