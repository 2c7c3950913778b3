package controllers

import (
	"net/http"

	"github.com/medovik-lab/honeybot-backend/api/responses"
	"github.com/medovik-lab/honeybot-backend/pkg/config"
	"github.com/medovik-lab/honeybot-backend/pkg/db"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/redis"
)

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady verifies the datasources are reachable.
func HealthReady(logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}

		ready := true
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["db"] = err.Error()
				ready = false
			} else {
				checks["db"] = "ok"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
				ready = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !ready {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "datasource not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
