package jobs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ameyrk/gutengo/internal/jobs"
	"github.com/ameyrk/gutengo/internal/testutil"
)

func TestStartJobsSchedulesBothJobs(t *testing.T) {
	app := testutil.SetupTestApp(t)

	s := jobs.StartJobs(app)
	t.Cleanup(s.Stop)

	assert.Equal(t, 2, s.Len())
}

func TestStartJobsSkipsPruneWhenLimitDisabled(t *testing.T) {
	app := testutil.SetupTestApp(t)
	app.Config.Import.HistoryLimit = 0

	s := jobs.StartJobs(app)
	t.Cleanup(s.Stop)

	// Only the progress sweep remains.
	assert.Equal(t, 1, s.Len())
}
