package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/backstage-cms/uploadcare-media/api/controllers"
	webhookcontrollers "github.com/backstage-cms/uploadcare-media/api/controllers/webhooks"
	"github.com/backstage-cms/uploadcare-media/api/middleware"
	"github.com/backstage-cms/uploadcare-media/internal/media"
	"github.com/backstage-cms/uploadcare-media/internal/observer"
	"github.com/backstage-cms/uploadcare-media/internal/repair"
	"github.com/backstage-cms/uploadcare-media/pkg/config"
	"github.com/backstage-cms/uploadcare-media/pkg/db"
	"github.com/backstage-cms/uploadcare-media/pkg/logger"
	"github.com/backstage-cms/uploadcare-media/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	mediaService *media.Service,
	ingestor *media.Ingestor,
	obs *observer.Observer,
	repairRunner *repair.Runner,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/uploadcare", webhookcontrollers.UploadcareWebhook(ingestor, cfg.Media, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminAuth(cfg.Admin, logg))
		r.Get("/media", controllers.MediaList(mediaService, logg))
		r.Get("/media/resolve", controllers.MediaResolve(mediaService, logg))
		r.Post("/field-values/{ulid}/normalize", controllers.FieldValueNormalize(obs, logg))
		r.Post("/repair", controllers.RepairRun(repairRunner, logg))
	})

	return r
}
