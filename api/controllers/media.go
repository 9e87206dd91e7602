package controllers

import (
	"net/http"
	"strings"

	"github.com/backstage-cms/uploadcare-media/api/middleware"
	"github.com/backstage-cms/uploadcare-media/api/responses"
	"github.com/backstage-cms/uploadcare-media/api/validators"
	"github.com/backstage-cms/uploadcare-media/internal/media"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/pagination"
)

// MediaList pages through the media library, newest first.
func MediaList(svc *media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := media.ListFilters{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
		}
		if site := middleware.SiteIDFromContext(r.Context()); site != "" {
			filters.SiteULID = &site
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		items, next, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":       items,
			"next_cursor": next,
		})
	}
}

// MediaResolve maps an identifier onto the CDN URL it serves from.
func MediaResolve(svc *media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		identifier := strings.TrimSpace(r.URL.Query().Get("identifier"))
		if identifier == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "identifier is required"))
			return
		}

		url, err := svc.ResolveCDNURL(r.Context(), identifier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"cdn_url": url})
	}
}
