package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/medovik-lab/honeybot-backend/api/responses"
	"github.com/medovik-lab/honeybot-backend/internal/catalog"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
)

// ProductTypes lists the catalog's honey varieties.
func ProductTypes(repo catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		types, err := repo.ListProductTypes(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, types)
	}
}

// Packages lists the known container kinds.
func Packages(repo catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		packages, err := repo.ListPackages(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, packages)
	}
}

// SizeLookup resolves ?name=<size name> to its id through the read-through
// redis cache, so admin tooling sees price-list edits without a bot restart.
func SizeLookup(cache *catalog.SizeCache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		name := r.URL.Query().Get("name")
		if name == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "query parameter name is required"))
			return
		}

		id, err := cache.SizeID(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("size %q not found", name))
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"name": name, "id": id})
	}
}
