package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/backstage-cms/uploadcare-media/api/responses"
	"github.com/backstage-cms/uploadcare-media/internal/observer"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
)

// FieldValueNormalize runs one field value through the save pipeline, on
// demand. The CMS calls this right after persisting an editor's save.
func FieldValueNormalize(obs *observer.Observer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if obs == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "observer unavailable"))
			return
		}

		ulid := strings.TrimSpace(chi.URLParam(r, "ulid"))
		if ulid == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "ulid is required"))
			return
		}

		fv, err := obs.ProcessByULID(r.Context(), ulid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"ulid":  fv.ULID,
			"value": fv.Value,
		})
	}
}
