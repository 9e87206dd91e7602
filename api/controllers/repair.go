package controllers

import (
	"net/http"

	"github.com/backstage-cms/uploadcare-media/api/responses"
	"github.com/backstage-cms/uploadcare-media/internal/repair"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// RepairRun triggers a full repair pass and reports what it touched.
// The encoding pass runs first so normalization sees native containers.
func RepairRun(runner *repair.Runner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "repair runner unavailable"))
			return
		}

		encoding, err := runner.RepairEncoding(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := runner.Run(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"rows_scanned":      stats.RowsScanned,
			"rows_rewritten":    stats.RowsRewritten,
			"refs_dropped":      stats.RefsDropped,
			"decodes":           stats.Decodes,
			"values_collapsed":  encoding.ValuesCollapsed,
			"settings_repaired": encoding.SettingsRepaired,
		})
	}
}
