package controllers

import (
	"net/http"

	"github.com/medovik-lab/honeybot-backend/api/responses"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
	"github.com/medovik-lab/honeybot-backend/pkg/maps"
)

// Geocode resolves ?q=<address> to coordinates.
func Geocode(client *maps.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query().Get("q")
		if query == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}

		coords, err := client.Geocode(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, coords)
	}
}

// Autocomplete returns Russia-scoped address suggestions for ?q=<prefix>.
func Autocomplete(client *maps.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query().Get("q")
		if query == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}

		suggestions, err := client.Autocomplete(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestions)
	}
}
