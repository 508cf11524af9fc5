// Background maintenance jobs: pruning old import history and sweeping
// expired progress records.

package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ameyrk/gutengo/internal/core"
)

// StartJobs starts the background job scheduler and returns it so the caller
// can stop it on shutdown.
func StartJobs(app *core.App) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startHistoryPruneJob(s, app)
	startProgressSweepJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

// startHistoryPruneJob keeps the import history table bounded to the
// configured limit.
func startHistoryPruneJob(s *gocron.Scheduler, app *core.App) {
	limit := app.Config.Import.HistoryLimit
	if limit <= 0 {
		log.Println("History limit is 0, scheduled pruning is disabled.")
		return
	}

	_, err := s.Every(1).Hour().Do(func() {
		pruned, err := app.Store.PruneImports(limit)
		if err != nil {
			log.Printf("History prune job failed: %v", err)
			return
		}
		if pruned > 0 {
			log.Printf("History prune job removed %d entries.", pruned)
		}
	})
	if err != nil {
		log.Printf("Error scheduling history prune job: %v", err)
	}
}

// startProgressSweepJob reaps terminal progress records whose retention
// window has passed, covering runs no sweep observed at the boundary.
func startProgressSweepJob(s *gocron.Scheduler, app *core.App) {
	_, err := s.Every(1).Minute().Do(func() {
		if reaped := app.Tracker.Sweep(); reaped > 0 {
			log.Printf("Progress sweep reaped %d stale records.", reaped)
		}
	})
	if err != nil {
		log.Printf("Error scheduling progress sweep job: %v", err)
	}
}
