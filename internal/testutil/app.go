// A shared test application setup utility, which simplifies integration
// tests across the api, pipeline and jobs packages.

package testutil

import (
	"testing"

	"github.com/ameyrk/gutengo/internal/config"
	"github.com/ameyrk/gutengo/internal/core"
)

// SetupTestApp builds a fully wired App over an in-memory database. The
// asset directory points at a per-test temp dir and the websocket hub is
// already running.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	db := SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Assets.Path = t.TempDir()
	cfg.Assets.PublicBaseURL = "/assets"
	cfg.Import.ImageWorkers = 2
	cfg.Import.HistoryLimit = 100

	app := core.Assemble(cfg, db)
	app.Version = "test"
	go app.Hub.Run()
	return app
}
