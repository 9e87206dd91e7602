package repair

import (
	"context"

	"github.com/backstage-cms/uploadcare-media/internal/normalize"
	"github.com/backstage-cms/uploadcare-media/pkg/db/models"
)

// EncodingStats summarizes one encoding repair pass.
type EncodingStats struct {
	ValuesScanned    int
	ValuesCollapsed  int
	SettingsScanned  int
	SettingsRepaired int
}

// RepairEncoding collapses multiply JSON-string-encoded payloads in place,
// without touching relationships. Both the field value and settings tables
// carry the historical double-encoding bug, so both are walked.
func (r *Runner) RepairEncoding(ctx context.Context) (EncodingStats, error) {
	var stats EncodingStats

	chunkSize := r.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 50
	}

	last := ""
	for {
		var rows []models.ContentFieldValue
		err := r.conn.WithContext(ctx).
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
			stats.ValuesScanned++
			collapsed, err := r.collapseColumn(ctx, rows[i].Value, rows[i].ULID, &models.ContentFieldValue{}, "value")
			if err != nil {
				return stats, err
			}
			if collapsed {
				stats.ValuesCollapsed++
			}
		}
		last = rows[len(rows)-1].ULID
	}

	last = ""
	for {
		var rows []models.Setting
		err := r.conn.WithContext(ctx).
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
			stats.SettingsScanned++
			collapsed, err := r.collapseColumn(ctx, rows[i].Values, rows[i].ULID, &models.Setting{}, "values")
			if err != nil {
				return stats, err
			}
			if collapsed {
				stats.SettingsRepaired++
			}
		}
		last = rows[len(rows)-1].ULID
	}

	if r.logg != nil {
		ctx = r.logg.WithFields(ctx, map[string]any{
			"values_collapsed":  stats.ValuesCollapsed,
			"settings_repaired": stats.SettingsRepaired,
		})
		r.logg.Info(ctx, "encoding repair complete")
	}
	return stats, nil
}

// collapseColumn rewrites one stored column when it carries extra encoding
// layers. The write skips hooks, mirroring the synchronizer's quiet update.
func (r *Runner) collapseColumn(ctx context.Context, raw, ulid string, model any, column string) (bool, error) {
	decoded, decodes, err := normalize.DecodeStored(raw)
	if err != nil || decodes == 0 {
		return false, nil
	}

	encoded, encErr := normalize.EncodeStored(decoded)
	if encErr != nil {
		return false, encErr
	}

	writeErr := r.conn.WithContext(ctx).
		Model(model).
		Where("ulid = ?", ulid).
		UpdateColumn(column, encoded).Error
	if writeErr != nil {
		return false, writeErr
	}

	r.metrics.ObserveDecodeDepth(decodes)
	if r.logg != nil {
		rowCtx := r.logg.WithFields(ctx, map[string]any{"ulid": ulid, "decodes": decodes})
		r.logg.Info(rowCtx, "collapsed string-encoded payload")
	}
	return true, nil
}
