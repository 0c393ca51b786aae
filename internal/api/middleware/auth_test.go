package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"userhub/internal/common/security"
	"userhub/internal/domain/model"
	"userhub/internal/platform/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

func initGuardTest(t *testing.T, exp time.Duration) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:     []byte("test-secret-key-at-least-32-chars"),
		JWTExp:     exp,
		BcryptCost: 4,
	}
	security.InitJWT()
}

func issueToken(t *testing.T, userType model.UserType) string {
	t.Helper()
	token, err := security.GenerateToken(&model.User{
		ID:    "user-1",
		Email: "a@b.com",
		Type:  userType,
		Roles: model.RolesForType(userType),
	})
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	return token
}

func guardedRouter(required ...model.UserRole) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, TokenFromConnectionParams))
	r.Group(func(authed chi.Router) {
		authed.Use(Authenticator)
		if len(required) > 0 {
			authed.Use(RequireRoles(required...))
		}
		authed.Get("/guarded", func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "no claims", http.StatusInternalServerError)
				return
			}
			w.Write([]byte(claims.Email))
		})
	})
	return r
}

func TestAuthenticatorMissingToken(t *testing.T) {
	initGuardTest(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()

	guardedRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticatorValidToken(t *testing.T) {
	initGuardTest(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, model.TypeUser))
	rec := httptest.NewRecorder()

	guardedRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "a@b.com" {
		t.Errorf("handler saw claims %q, want a@b.com", rec.Body.String())
	}
}

func TestAuthenticatorExpiredToken(t *testing.T) {
	initGuardTest(t, -time.Hour)
	token := issueToken(t, model.TypeUser)
	initGuardTest(t, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	guardedRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for an expired token", rec.Code)
	}
}

func TestAuthenticatorTokenFromConnectionParams(t *testing.T) {
	initGuardTest(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/guarded?Authorization=Bearer+"+issueToken(t, model.TypeUser), nil)
	rec := httptest.NewRecorder()

	guardedRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with the token in connection params", rec.Code)
	}
}

func TestRequireRolesForbidsMissingRole(t *testing.T) {
	initGuardTest(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, model.TypeUser))
	rec := httptest.NewRecorder()

	guardedRouter(model.RoleAdmin).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for a non-admin", rec.Code)
	}
}

// The caller must hold EVERY required role, not just one of them.
func TestRequireRolesDemandsEveryRole(t *testing.T) {
	initGuardTest(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, model.TypeUser))
	rec := httptest.NewRecorder()

	guardedRouter(model.RoleUser, model.RoleAdmin).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 when one of the required roles is missing", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, model.TypeAdmin))
	rec = httptest.NewRecorder()
	guardedRouter(model.RoleUser, model.RoleAdmin).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when all required roles are held", rec.Code)
	}
}

func TestRequireRolesFromTokenDecodesWithoutVerification(t *testing.T) {
	initGuardTest(t, time.Hour)
	adminToken := issueToken(t, model.TypeAdmin)
	userToken := issueToken(t, model.TypeUser)

	r := chi.NewRouter()
	r.With(RequireRolesFromToken(model.RoleAdmin)).Get("/stream", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/stream?authorization=Bearer+"+adminToken, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for an admin token in connection params", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream?authorization=Bearer+"+userToken, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for a non-admin token", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/stream", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 without any token (fails closed)", rec.Code)
	}
}
