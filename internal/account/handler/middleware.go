package handler

import (
	"net/http"
	"strings"

	"github.com/samtime/samtime-backend/internal/account/jwt"
	"github.com/samtime/samtime-backend/pkg/actor"
	"github.com/samtime/samtime-backend/pkg/errors"
	"github.com/samtime/samtime-backend/pkg/httputil"
	"github.com/samtime/samtime-backend/pkg/logger"
	"github.com/samtime/samtime-backend/pkg/tenant"
)

// Authenticator validates bearer tokens and scopes requests to the
// token's company
type Authenticator struct {
	jwt    *jwt.Manager
	logger *logger.Logger
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(manager *jwt.Manager, log *logger.Logger) *Authenticator {
	return &Authenticator{jwt: manager, logger: log.WithComponent("auth")}
}

// RequireToken rejects requests without a valid access token
func (a *Authenticator) RequireToken(next http.Handler) http.Handler {
	return a.middleware(true, httputil.ErrorLocalized)(next)
}

// ActionToken guards the action endpoint. Failures are answered in the
// status envelope. With required false a request without an
// Authorization header passes through unscoped, but a bad token is still
// refused.
func (a *Authenticator) ActionToken(required bool) func(http.Handler) http.Handler {
	return a.middleware(required, httputil.StatusError)
}

func (a *Authenticator) middleware(required bool, fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if required {
					fail(w, r, errUnauthenticated())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				fail(w, r, errors.TokenInvalid())
				return
			}

			claims, err := a.jwt.ValidateAccessToken(strings.TrimSpace(parts[1]))
			if err != nil {
				a.logger.Debug().Err(err).Msg("token validation failed")
				fail(w, r, err)
				return
			}

			ctx := tenant.WithCompanyID(r.Context(), claims.CompanyID)
			ctx = actor.WithActor(ctx, &actor.Actor{
				CompanyID: claims.CompanyID,
				Name:      claims.Name,
				Email:     claims.Email,
			})
			httputil.RecordCompany(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func errUnauthenticated() *errors.AppError {
	return errors.NewWithKey("UNAUTHORIZED", "errors.unauthorized", http.StatusUnauthorized)
}
