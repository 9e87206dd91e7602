package controllers

import (
	"net/http"

	"github.com/backstage-cms/uploadcare-media/api/responses"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db"
	pkgerrors "github.com/backstage-cms/uploadcare-media/pkg/errors"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/redis"
)

const envHeader = "X-Backstage-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness once the backing stores answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
