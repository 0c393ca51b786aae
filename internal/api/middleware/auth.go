package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"userhub/internal/common"
	"userhub/internal/common/security"
	"userhub/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const ClaimsCtxKey contextKey = "claims"

// Authenticator is the strict guard: it requires a verified token (found by
// the Verifier in the Authorization header or, for event-stream connections,
// the query string) and attaches typed claims to the request context.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, rawClaims, err := jwtauth.FromContext(r.Context())

		if err != nil {
			switch {
			case errors.Is(err, jwtauth.ErrNoTokenFound):
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			case errors.Is(err, jwtauth.ErrExpired):
				common.RespondWithError(w, http.StatusUnauthorized, common.ErrTokenExpired.Error())
			default:
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, err := security.ClaimsFromMap(rawClaims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles passes only callers whose verified claims contain EVERY listed
// role. Fails closed when claims are absent or carry no roles.
func RequireRoles(required ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !hasEveryRole(claims.Roles, required) {
				common.RespondWithError(w, http.StatusForbidden, common.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRolesFromToken is the reduced-trust role gate for subscription
// setup: it decodes the role claim from the connection parameters without
// verifying the signature. Never use it on the authenticated request path;
// the strict Authenticator owns the final authorization decision there.
func RequireRolesFromToken(required ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := bearerFromConnectionParams(r)
			if bearer == "" {
				common.RespondWithError(w, http.StatusForbidden, common.ErrForbidden.Error())
				return
			}

			roles, err := security.DecodeRoles(bearer)
			if err != nil || !hasEveryRole(roles, required) {
				common.RespondWithError(w, http.StatusForbidden, common.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Helper to get typed claims from context
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(ClaimsCtxKey).(*security.Claims)
	return claims, ok
}

func hasEveryRole(have []model.UserRole, required []model.UserRole) bool {
	for _, role := range required {
		if !model.ContainsRole(have, role) {
			return false
		}
	}
	return true
}

// TokenFromConnectionParams extracts a bearer token from connection
// parameters: query-string keys are matched case-insensitively, the way
// handshake parameters are normalized to lowercase before being treated as
// headers. Suitable as a jwtauth token finder.
func TokenFromConnectionParams(r *http.Request) string {
	for key, values := range r.URL.Query() {
		if strings.EqualFold(key, "authorization") && len(values) > 0 {
			return strings.TrimPrefix(values[0], "Bearer ")
		}
	}
	return ""
}

func bearerFromConnectionParams(r *http.Request) string {
	if token := TokenFromConnectionParams(r); token != "" {
		return token
	}
	return r.Header.Get("Authorization")
}
