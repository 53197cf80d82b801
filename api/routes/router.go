package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/crewtext-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/crewtext-backend/api/controllers/webhooks"
	"github.com/angelmondragon/crewtext-backend/api/middleware"
	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/enums"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/crewtext-backend/pkg/redis"
)

// NewRouter builds the API surface: health probes, metrics, the Twilio
// inbound webhook and the operator endpoints for reminders.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	inboundService webhookcontrollers.IncomingMessageProcessor,
	reminderService controllers.ReminderService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	mountOps(r, cfg, logg, pingers, gatherer)

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(middleware.TwilioSignature(cfg.Twilio, logg)).
			Post("/twilio/sms", webhookcontrollers.TwilioSMS(inboundService, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.AdminCORSOrigins))
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin, enums.OperatorRoleViewer))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Get("/ping", controllers.AdminPing())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMutate(logg))
			r.Post("/v1/reminders/test", controllers.AdminSendTestReminder(reminderService, logg))
			r.Put("/v1/assignments/{jobId}/{associateId}/reminder-status", controllers.AdminUpdateReminderStatus(reminderService, logg))
		})
	})

	return r
}

// NewAdminRouter builds the reminder worker's control surface. Viewers may
// read scheduler stats; triggering a cycle or changing the config needs the
// admin role.
func NewAdminRouter(
	cfg *config.Config,
	logg *logger.Logger,
	pingers map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	schedulerService controllers.SchedulerService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	mountOps(r, cfg, logg, pingers, gatherer)

	r.Route("/api/admin/v1/scheduler", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.AdminCORSOrigins))
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.OperatorRoleAdmin, enums.OperatorRoleViewer))
		r.Use(middleware.Idempotency(idempotencyStore, logg))
		r.Get("/stats", controllers.SchedulerStats(schedulerService))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMutate(logg))
			r.Post("/run", controllers.SchedulerRun(schedulerService, logg))
			r.Put("/config", controllers.SchedulerUpdateConfig(schedulerService, logg))
		})
	})

	return r
}

func mountOps(r chi.Router, cfg *config.Config, logg *logger.Logger, pingers map[string]controllers.Pinger, gatherer prometheus.Gatherer) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}
