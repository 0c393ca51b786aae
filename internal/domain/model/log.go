package model

import (
	"time"
)

// LogType is the severity of an audit event. It must map onto a logger level.
type LogType string

const (
	LogTypeLog   LogType = "LOG"
	LogTypeError LogType = "ERROR"
)

// LogFrom tags the origin of an audit event.
type LogFrom string

const (
	LogFromAPI LogFrom = "API"
)

// LogEvent is an audit event published on the event bus. Immutable after
// creation. WriteDatabase left nil means "persist" (the default).
type LogEvent struct {
	Type          LogType                `json:"type"`
	WriteDatabase *bool                  `json:"write_database,omitempty"`
	From          LogFrom                `json:"from"`
	EventName     string                 `json:"event_name"`
	ServiceName   string                 `json:"service_name"`
	Description   string                 `json:"description,omitempty"`
	Message       interface{}            `json:"message,omitempty"`
	ErrorCode     interface{}            `json:"error_code,omitempty"`
	Stack         interface{}            `json:"stack,omitempty"`
	Context       map[string]interface{} `json:"context,omitempty"`
}

// ShouldPersist reports whether the event is written to the log collection.
func (e *LogEvent) ShouldPersist() bool {
	return e.WriteDatabase == nil || *e.WriteDatabase
}

// Payload serializes the event to a plain attribute map. The Type and
// WriteDatabase control fields stay out of the persisted and logged payload.
func (e *LogEvent) Payload() map[string]interface{} {
	payload := map[string]interface{}{
		"from":         e.From,
		"event_name":   e.EventName,
		"service_name": e.ServiceName,
	}
	if e.Description != "" {
		payload["description"] = e.Description
	}
	if e.Message != nil {
		payload["message"] = e.Message
	}
	if e.ErrorCode != nil {
		payload["error_code"] = e.ErrorCode
	}
	if e.Stack != nil {
		payload["stack"] = e.Stack
	}
	if e.Context != nil {
		payload["context"] = e.Context
	}
	return payload
}

// LogRecord is the append-only persisted form of a LogEvent.
type LogRecord struct {
	ID        string                 `json:"id"`
	Type      LogType                `json:"type"`
	From      LogFrom                `json:"from"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"created_at"`
}
