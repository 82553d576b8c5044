package app

import (
	"mcbarchive/config"
	"mcbarchive/internal/controllers"
	"mcbarchive/internal/database"
	"mcbarchive/internal/handlers/middleware"
	"mcbarchive/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    *database.DB
	Middleware  middleware.Middleware
	Config      config.Config
	Services    services.Service
	Controllers controllers.Controllers
}

// New wires the API. The show store is not contacted here; a missing or
// unusable store configuration surfaces on the first request that needs it.
func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	if err := config.ValidateServer(); err != nil {
		return &App{}, log.Err("invalid server configuration", err)
	}

	db := database.New(config)
	services := services.New(db)
	controllers := controllers.New(services)
	middleware := middleware.New(config)

	app := &App{
		Database:    db,
		Config:      config,
		Middleware:  middleware,
		Services:    services,
		Controllers: controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	if a.Services.Transaction == nil ||
		a.Services.ShowQuery == nil ||
		a.Services.Vote == nil ||
		a.Services.Ingestion == nil {
		return log.ErrMsg("nil service check failed")
	}

	if a.Controllers.Shows == nil || a.Controllers.Votes == nil {
		return log.ErrMsg("nil controller check failed")
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.Database == nil {
		return nil
	}

	return a.Database.Close()
}
