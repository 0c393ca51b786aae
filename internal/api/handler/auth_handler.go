package handler

import (
	"encoding/json"
	"net/http"
	"userhub/internal/api/middleware"
	"userhub/internal/app/service"
	"userhub/internal/common"
	"userhub/internal/pubsub"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	broker      *pubsub.Broker
	throttle    func(http.Handler) http.Handler
}

func NewAuthHandler(authService *service.AuthService, broker *pubsub.Broker, throttle func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{authService: authService, broker: broker, throttle: throttle}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.With(h.throttle).Post("/register", h.register)
	r.With(h.throttle).Post("/login", h.login)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator)
		authed.With(h.throttle).Post("/logout", h.logout)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	user, err := h.authService.Logout(r.Context(), claims)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	h.broker.Publish(pubsub.TopicUserLogout, user)
	common.RespondWithJSON(w, http.StatusOK, user)
}
