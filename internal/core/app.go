package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/ameyrk/gutengo/internal/assets"
	"github.com/ameyrk/gutengo/internal/config"
	"github.com/ameyrk/gutengo/internal/db"
	"github.com/ameyrk/gutengo/internal/importer"
	"github.com/ameyrk/gutengo/internal/importer/gdocs"
	"github.com/ameyrk/gutengo/internal/importer/markdown"
	"github.com/ameyrk/gutengo/internal/importer/medium"
	"github.com/ameyrk/gutengo/internal/importer/notion"
	"github.com/ameyrk/gutengo/internal/pipeline"
	"github.com/ameyrk/gutengo/internal/progress"
	"github.com/ameyrk/gutengo/internal/store"
	"github.com/ameyrk/gutengo/internal/websocket"
	"github.com/ameyrk/gutengo/migrations"
)

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Hub      *websocket.Hub
	Tracker  *progress.Tracker
	Registry *importer.Registry
	Store    *store.Store
	Assets   *assets.Store
	Runner   *pipeline.Runner
	Version  string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running
// migrations, then wires the importers and the pipeline.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(database, migrations.Files); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app := Assemble(cfg, database)
	log.Println("Core application setup complete.")
	return app, nil
}

// Assemble wires the application components on top of an already migrated
// database. Split out of New so tests can inject their own config and DB.
func Assemble(cfg *config.Config, database *sql.DB) *App {
	st := store.New(database)
	assetStore := assets.New(st, cfg)
	tracker := progress.NewTracker()
	registry := NewRegistry(cfg)

	return &App{
		Config:   cfg,
		DB:       database,
		Hub:      websocket.NewHub(),
		Tracker:  tracker,
		Registry: registry,
		Store:    st,
		Assets:   assetStore,
		Runner:   pipeline.New(registry, tracker, st, assetStore, cfg.Import.ImageWorkers),
		Version:  "dev",
	}
}

// NewRegistry registers the four source connectors in detection order:
// specific URL sources first, pasted markdown last.
func NewRegistry(cfg *config.Config) *importer.Registry {
	registry := importer.NewRegistry()
	registry.Register(medium.New(cfg.Medium.APIKey))
	registry.Register(notion.New(cfg.Notion.APIKey))
	registry.Register(gdocs.New(gdocs.StaticTokenProvider{AccessToken: cfg.Google.AccessToken}))
	registry.Register(markdown.New())
	return registry
}

// Close gracefully closes the application's resources, like the DB
// connection.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
