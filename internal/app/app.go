package app

import (
	"context"
	"newsdigest/config"
	"newsdigest/internal/controllers"
	"newsdigest/internal/database"
	"newsdigest/internal/handlers/middleware"
	"newsdigest/internal/jobs"
	"newsdigest/internal/repositories"
	"newsdigest/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	Config      config.Config
	Repos       repositories.Repository
	Services    services.Service
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	repos := repositories.New(db)

	services, err := services.New(db, config, repos)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	if err := jobs.RegisterAllJobs(services.Scheduler, config, services); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	controllers := controllers.New(services, repos, config)
	middleware := middleware.New(db, config, repos)

	app := &App{
		Database:    db,
		Middleware:  middleware,
		Config:      config,
		Repos:       repos,
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
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]any{
		"userRepository":     a.Repos.User,
		"interestRepository": a.Repos.Interest,
		"digestRepository":   a.Repos.Digest,
		"schedulerService":   a.Services.Scheduler,
		"digestService":      a.Services.Digest,
		"eligibilityService": a.Services.Eligibility,
		"digestController":   a.Controllers.Digest,
	}

	for name, check := range nilChecks {
		if check == nil {
			return log.Error("nil check failed", "component", name)
		}
	}

	return nil
}

// StartScheduler starts the background digest jobs when the scheduler is enabled.
func (a *App) StartScheduler(ctx context.Context) error {
	if !a.Services.Scheduler.Enabled() {
		return nil
	}
	return a.Services.Scheduler.Start(ctx)
}

// Close stops the scheduler, letting in-flight jobs drain for the configured
// grace period, then closes the database.
func (a *App) Close() (err error) {
	log := logger.New("app").Function("Close")

	if a.Services.Scheduler != nil && a.Services.Scheduler.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.SchedulerShutdownGrace())
		defer cancel()

		if closeErr := a.Services.Scheduler.Stop(ctx); closeErr != nil {
			log.Er("scheduler did not stop cleanly", closeErr)
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
