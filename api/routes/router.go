package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medovik-lab/honeybot-backend/api/controllers"
	"github.com/medovik-lab/honeybot-backend/api/middleware"
	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	"github.com/medovik-lab/honeybot-backend/pkg/config"
	"github.com/medovik-lab/honeybot-backend/pkg/db"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/maps"
	"github.com/medovik-lab/honeybot-backend/pkg/redis"
)

// NewRouter assembles the companion HTTP API: health checks, metrics, the
// geocoding proxy, and the static catalog endpoints used by admin tooling.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	mapsClient *maps.Client,
	catalogRepo catalog.Repository,
	sizeCache *catalog.SizeCache,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if mapsClient != nil {
			r.Route("/geocoding", func(r chi.Router) {
				r.Get("/geocode", controllers.Geocode(mapsClient, logg))
				r.Get("/autocomplete", controllers.Autocomplete(mapsClient, logg))
			})
		}
		r.Route("/static", func(r chi.Router) {
			r.Get("/product-types", controllers.ProductTypes(catalogRepo, logg))
			r.Get("/packages", controllers.Packages(catalogRepo, logg))
			r.Get("/sizes", controllers.SizeLookup(sizeCache, logg))
		})
	})

	return r
}
