package middleware

import (
	"net/http"
	"strings"

	"github.com/Praitheesh/alf.io/internal/pkg/jwt"
	"github.com/Praitheesh/alf.io/internal/pkg/session"
	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/response"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type AdminSession struct {
	jsonWebToken *jwt.JSONWebToken
	store        session.Store
}

func NewAdminSessionMiddleware(jsonWebToken *jwt.JSONWebToken, store session.Store) *AdminSession {
	return &AdminSession{
		jsonWebToken: jsonWebToken,
		store:        store,
	}
}

// Verify authenticates the bearer token, resolves the backing session
// and attaches the admin account to the request context.
func (m *AdminSession) Verify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authorization := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(authorization, "Bearer ")
		if !found {
			response.JSON(w, http.StatusUnauthorized, response.RESTEnvelope{
				Status:  status.UNAUTHORIZED,
				Message: "missing bearer token",
			})

			return
		}

		claims, err := m.jsonWebToken.Parse(tokenString)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		acc, err := m.store.Get(ctx, claims.SessionID)
		if err != nil {
			ae := errors.Destruct(err)
			response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
				Status:  ae.Status,
				Message: ae.Message,
			})

			return
		}

		next(w, r.WithContext(session.SetAccountToCtx(ctx, acc)))
	}
}
