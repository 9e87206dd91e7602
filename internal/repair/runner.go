package repair

import (
	"context"

	"gorm.io/gorm"

	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/metrics"
)

// Runner drives the batch normalization of stored field values. It streams
// rows in fixed-size chunks ordered by primary key, so an interrupted run can
// be restarted and will converge; rows already normalized pass through as
// no-ops.
type Runner struct {
	conn     *gorm.DB
	resolver *media.Resolver
	sync     *media.Synchronizer
	cfg      config.RepairConfig
	mediaCfg config.MediaConfig
	logg     *logger.Logger
	metrics  *metrics.RepairMetrics
}

type RunnerParams struct {
	Conn     *gorm.DB
	Resolver *media.Resolver
	Sync     *media.Synchronizer
	Config   config.RepairConfig
	Media    config.MediaConfig
	Logger   *logger.Logger
	Metrics  *metrics.RepairMetrics
}

func NewRunner(params RunnerParams) *Runner {
	return &Runner{
		conn:     params.Conn,
		resolver: params.Resolver,
		sync:     params.Sync,
		cfg:      params.Config,
		mediaCfg: params.Media,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}
}

// Stats summarizes one batch run.
type Stats struct {
	RowsScanned   int
	RowsRewritten int
	RefsDropped   int
	Decodes       int
}

// Run normalizes every stored value belonging to a file-bearing field.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	fieldULIDs, err := r.fileBearingFieldULIDs(ctx)
	if err != nil {
		return stats, err
	}
	if len(fieldULIDs) == 0 {
		return stats, nil
	}

	fallbackSite, err := r.fallbackSite(ctx)
	if err != nil {
		return stats, err
	}

	chunkSize := r.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	last := ""
	for {
		var rows []models.ContentFieldValue
		err := r.conn.WithContext(ctx).
			Where("field_ulid IN ?", fieldULIDs).
			Where("ulid > ?", last).
			Order("ulid ASC").
			Limit(chunkSize).
			Find(&rows).Error
		if err != nil {
			return stats, err
		}
		if len(rows) == 0 {
			break
		}

		for i := range rows {
			r.repairRow(ctx, &rows[i], fallbackSite, &stats)
		}
		last = rows[len(rows)-1].ULID

		if r.logg != nil {
			chunkCtx := r.logg.WithFields(ctx, map[string]any{
				"rows_scanned":   stats.RowsScanned,
				"rows_rewritten": stats.RowsRewritten,
				"last_ulid":      last,
			})
			r.logg.Info(chunkCtx, "repair chunk complete")
		}
	}

	return stats, nil
}

func (r *Runner) repairRow(ctx context.Context, fv *models.ContentFieldValue, fallbackSite *string, stats *Stats) {
	stats.RowsScanned++
	r.metrics.AddRowsScanned(1)

	decoded, decodes, err := normalize.DecodeStored(fv.Value)
	if err != nil {
		// Not a container; nothing to normalize in this row.
		return
	}

	site := fv.SiteULID
	if site == nil && r.mediaCfg.TenantAware {
		site = fallbackSite
	}

	rewriter := normalize.NewRewriter(r.resolver.ForTenant(site))
	rewritten, mutated := rewriter.Rewrite(ctx, decoded)
	refs := rewriter.Refs()

	stats.RefsDropped += rewriter.Dropped()
	r.metrics.AddRefsDropped(rewriter.Dropped())
	totalDecodes := decodes + rewriter.Decodes()
	stats.Decodes += totalDecodes
	if totalDecodes > 0 {
		r.metrics.ObserveDecodeDepth(totalDecodes)
	}

	if !mutated && totalDecodes == 0 && len(refs) == 0 {
		return
	}

	newValue := fv.Value
	if mutated || totalDecodes > 0 {
		encoded, err := normalize.EncodeStored(rewritten)
		if err != nil {
			r.logError(ctx, fv.ULID, "encoding rewritten value failed", err)
			return
		}
		newValue = encoded
	}

	if err := r.sync.Sync(ctx, fv, refs, newValue); err != nil {
		// The transaction rolled back; the row is untouched and the next
		// run retries it.
		r.logError(ctx, fv.ULID, "synchronizing field value failed", err)
		return
	}

	if mutated || totalDecodes > 0 {
		stats.RowsRewritten++
		r.metrics.AddRowsRewritten(1)
	}
}

func (r *Runner) fileBearingFieldULIDs(ctx context.Context) ([]string, error) {
	var ulids []string
	err := r.conn.WithContext(ctx).
		Model(&models.Field{}).
		Where("field_type IN ?", models.FileBearingFieldTypes()).
		Pluck("ulid", &ulids).Error
	if err != nil {
		return nil, err
	}
	return ulids, nil
}

// fallbackSite returns the first site by primary key, used to stamp media
// created from rows that predate tenant tracking.
func (r *Runner) fallbackSite(ctx context.Context) (*string, error) {
	if !r.mediaCfg.TenantAware {
		return nil, nil
	}
	var site models.Site
	err := r.conn.WithContext(ctx).Order("ulid ASC").First(&site).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &site.ULID, nil
}

func (r *Runner) logError(ctx context.Context, fieldValueID, msg string, err error) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithFieldValueID(ctx, fieldValueID)
	r.logg.Error(ctx, msg, err)
}
