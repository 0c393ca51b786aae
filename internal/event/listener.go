package event

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"userhub/internal/common"
	"userhub/internal/domain/model"
	"userhub/internal/domain/repository"

	"github.com/google/uuid"
)

// levelsByName maps lowercased log types onto slog levels.
var levelsByName = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"log":   slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogListener is the sole create.log subscriber: it forwards each event to
// the runtime logger and persists it unless the event opts out.
type LogListener struct {
	logger  *slog.Logger
	logRepo repository.LogRepository
}

func NewLogListener(logger *slog.Logger, logRepo repository.LogRepository) *LogListener {
	return &LogListener{logger: logger, logRepo: logRepo}
}

func (l *LogListener) Register(bus *Bus) {
	bus.Subscribe(EventCreateLog, l.Handle)
}

// Handle serializes the event (control fields excluded), logs it at the level
// derived from its type, and persists it when ShouldPersist. A persistence
// failure propagates; durability is best-effort, not guaranteed.
func (l *LogListener) Handle(ctx context.Context, event *model.LogEvent) error {
	level, ok := levelsByName[strings.ToLower(string(event.Type))]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrUnsupportedLogType, event.Type)
	}

	payload := event.Payload()
	l.logger.Log(ctx, level, event.EventName, slog.String("service", event.ServiceName), slog.Any("data", payload))

	if !event.ShouldPersist() {
		return nil
	}

	return l.logRepo.Create(ctx, &model.LogRecord{
		ID:   uuid.NewString(),
		Type: event.Type,
		From: event.From,
		Data: payload,
	})
}
