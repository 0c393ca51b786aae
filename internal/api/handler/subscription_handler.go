package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"userhub/internal/api/middleware"
	"userhub/internal/common"
	"userhub/internal/domain/model"
	"userhub/internal/pubsub"

	"github.com/go-chi/chi/v5"
)

// SubscriptionHandler serves broker topics as server-sent event streams.
// Clients pass their token as a connection parameter (?authorization=Bearer+T)
// since event-stream requests cannot set custom headers from browsers.
type SubscriptionHandler struct {
	broker *pubsub.Broker
}

func NewSubscriptionHandler(broker *pubsub.Broker) *SubscriptionHandler {
	return &SubscriptionHandler{broker: broker}
}

func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	// User lifecycle streams: role gate reads the role claim from the
	// connection parameters without signature verification (reduced trust).
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRolesFromToken(model.RoleAdmin))
		admin.Get("/"+pubsub.TopicUserCreated, h.stream(pubsub.TopicUserCreated))
		admin.Get("/"+pubsub.TopicUserUpdated, h.stream(pubsub.TopicUserUpdated))
		admin.Get("/"+pubsub.TopicUserDeleted, h.stream(pubsub.TopicUserDeleted))
	})

	// Logout notifications require a fully verified token.
	r.With(middleware.Authenticator).Get("/"+pubsub.TopicUserLogout, h.stream(pubsub.TopicUserLogout))

	r.Get("/"+pubsub.TopicLogCreated, h.stream(pubsub.TopicLogCreated))
}

func (h *SubscriptionHandler) stream(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			common.RespondWithError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		events, cancel := h.broker.Subscribe(topic)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case payload := <-events:
				// Envelope keyed by topic name, matching the publish shape.
				data, err := json.Marshal(map[string]interface{}{topic: payload})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", topic, data)
				flusher.Flush()
			}
		}
	}
}
