package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/caseweave/caseweave/modules/core/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/composables"
)

// ProvideActor resolves the acting user from the X-Actor-Id header and
// attaches it to the request context. Requests without the header pass
// through unauthenticated; mutations that need an actor reject later.
func ProvideActor(app application.Application) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("X-Actor-Id")
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			actorID, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid X-Actor-Id header", http.StatusBadRequest)
				return
			}

			userService := app.Service(services.UserService{}).(*services.UserService)
			u, err := userService.GetByID(r.Context(), actorID)
			if err != nil {
				logger := composables.UseLogger(r.Context())
				logger.WithField("actor_id", actorID).WithError(err).Warn("actor not found")
				http.Error(w, "unknown actor", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(composables.WithUser(r.Context(), u)))
		})
	}
}
