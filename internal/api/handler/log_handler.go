package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"userhub/internal/api/middleware"
	"userhub/internal/app/service"
	"userhub/internal/common"
	"userhub/internal/domain/model"
	"userhub/internal/domain/repository"
	"userhub/internal/pubsub"

	"github.com/go-chi/chi/v5"
)

type LogHandler struct {
	logService *service.LogService
	broker     *pubsub.Broker
}

func NewLogHandler(logService *service.LogService, broker *pubsub.Broker) *LogHandler {
	return &LogHandler{logService: logService, broker: broker}
}

func (h *LogHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator) // All log routes require auth

	r.Post("/", h.createLog)
	r.Get("/", h.listLogs)
	r.Get("/{logID}", h.getLog)
}

func (h *LogHandler) createLog(w http.ResponseWriter, r *http.Request) {
	var req service.CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	record, err := h.logService.CreateOne(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	h.broker.Publish(pubsub.TopicLogCreated, record)
	common.RespondWithJSON(w, http.StatusCreated, record)
}

func (h *LogHandler) listLogs(w http.ResponseWriter, r *http.Request) {
	filter := repository.LogFilter{
		Type: model.LogType(r.URL.Query().Get("type")),
		From: model.LogFrom(r.URL.Query().Get("from")),
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		filter.Offset = offset
	}

	records, err := h.logService.FindMany(r.Context(), filter)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, records)
}

func (h *LogHandler) getLog(w http.ResponseWriter, r *http.Request) {
	record, err := h.logService.FindUnique(r.Context(), chi.URLParam(r, "logID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, record)
}
