package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/medovik-lab/honeybot-backend/api/responses"
	pkgerrors "github.com/medovik-lab/honeybot-backend/pkg/errors"
	"github.com/medovik-lab/honeybot-backend/pkg/logger"
)

// Recoverer converts handler panics into a 500 response. http.ErrAbortHandler
// is re-raised untouched so aborted streams keep net/http's semantics.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"panic": rec,
						"stack": string(debug.Stack()),
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
