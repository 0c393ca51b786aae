package handler

import (
	"encoding/json"
	"net/http"
	"userhub/internal/api/middleware"
	"userhub/internal/app/service"
	"userhub/internal/common"
	"userhub/internal/domain/model"
	"userhub/internal/pubsub"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	broker      *pubsub.Broker
	throttle    func(http.Handler) http.Handler
}

func NewUserHandler(userService *service.UserService, broker *pubsub.Broker, throttle func(http.Handler) http.Handler) *UserHandler {
	return &UserHandler{userService: userService, broker: broker, throttle: throttle}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All user routes require a verified token

	r.With(middleware.RequireRoles(model.RoleUser)).Get("/", h.listUsers)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(model.RoleAdmin))
		admin.Get("/{userID}", h.getUser)
		admin.With(h.throttle).Post("/", h.createUser)
		admin.With(h.throttle).Put("/{userID}", h.updateUser)
		admin.With(h.throttle).Delete("/{userID}", h.deleteUser)
	})
}

// RegisterMeRoute exposes the current-user lookup, outside the /users tree.
func (h *UserHandler) RegisterMeRoute(r chi.Router) {
	r.With(middleware.Authenticator).Get("/me", h.me)
}

func (h *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	user, err := h.userService.FindCurrent(r.Context(), claims)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.FindMany(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.FindUnique(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.CreateOne(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	h.broker.Publish(pubsub.TopicUserCreated, user)
	common.RespondWithJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.UpdateOne(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	h.broker.Publish(pubsub.TopicUserUpdated, user)
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.DeleteOne(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	h.broker.Publish(pubsub.TopicUserDeleted, user)
	common.RespondWithJSON(w, http.StatusOK, user)
}
