package repair

import (
	"context"

	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// JobName identifies the scheduled repair in logs, metrics, and the lock key.
const JobName = "uploadcare-media-repair"

// Job adapts the batch runner to the cron worker.
type Job struct {
	runner *Runner
	logg   *logger.Logger
}

func NewJob(runner *Runner, logg *logger.Logger) *Job {
	return &Job{runner: runner, logg: logg}
}

func (j *Job) Name() string { return JobName }

// Run executes one full repair pass: encoding collapse first, so the
// normalization pass sees native containers, then the normalization itself.
func (j *Job) Run(ctx context.Context) error {
	encStats, err := j.runner.RepairEncoding(ctx)
	if err != nil {
		return err
	}

	stats, err := j.runner.Run(ctx)
	if err != nil {
		return err
	}

	if j.logg != nil {
		ctx = j.logg.WithFields(ctx, map[string]any{
			"rows_scanned":      stats.RowsScanned,
			"rows_rewritten":    stats.RowsRewritten,
			"refs_dropped":      stats.RefsDropped,
			"values_collapsed":  encStats.ValuesCollapsed,
			"settings_repaired": encStats.SettingsRepaired,
		})
		j.logg.Info(ctx, "repair pass complete")
	}
	return nil
}
