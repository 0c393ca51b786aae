package service

import (
	"context"
	"fmt"
	"strings"
	"userhub/internal/common"
	"userhub/internal/domain/model"
	"userhub/internal/domain/repository"

	"github.com/google/uuid"
)

// validLogTypes mirrors the listener's level mapping: a record type must be
// dispatchable to the runtime logger.
var validLogTypes = map[string]bool{
	"debug": true,
	"log":   true,
	"warn":  true,
	"error": true,
}

type LogService struct {
	logRepo repository.LogRepository
}

func NewLogService(logRepo repository.LogRepository) *LogService {
	return &LogService{logRepo: logRepo}
}

type CreateLogRequest struct {
	Type model.LogType          `json:"type"`
	From model.LogFrom          `json:"from"`
	Data map[string]interface{} `json:"data"`
}

// CreateOne persists a log record supplied directly through the API, as
// opposed to records produced by the event pipeline.
func (s *LogService) CreateOne(ctx context.Context, req CreateLogRequest) (*model.LogRecord, error) {
	if !validLogTypes[strings.ToLower(string(req.Type))] {
		return nil, fmt.Errorf("%w: %s", common.ErrValidation, req.Type)
	}
	if req.From == "" {
		return nil, fmt.Errorf("%w: origin is required", common.ErrValidation)
	}

	record := &model.LogRecord{
		ID:   uuid.NewString(),
		Type: req.Type,
		From: req.From,
		Data: req.Data,
	}
	if err := s.logRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *LogService) FindMany(ctx context.Context, filter repository.LogFilter) ([]*model.LogRecord, error) {
	return s.logRepo.FindAll(ctx, filter)
}

func (s *LogService) FindUnique(ctx context.Context, id string) (*model.LogRecord, error) {
	return s.logRepo.FindByID(ctx, id)
}
