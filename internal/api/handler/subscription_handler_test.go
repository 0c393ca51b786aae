package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"userhub/internal/pubsub"
)

func TestStreamDeliversPublishedPayloads(t *testing.T) {
	broker := pubsub.NewBroker()
	h := NewSubscriptionHandler(broker)

	req := httptest.NewRequest(http.MethodGet, "/"+pubsub.TopicLogCreated, nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.stream(pubsub.TopicLogCreated)(rec, req)
		close(done)
	}()

	// Give the stream a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)
	broker.Publish(pubsub.TopicLogCreated, map[string]interface{}{"id": "log-1"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not stop after disconnect")
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: "+pubsub.TopicLogCreated) {
		t.Errorf("body %q missing the event line", body)
	}
	if !strings.Contains(body, `"log-1"`) {
		t.Errorf("body %q missing the published payload", body)
	}
	if !strings.Contains(body, `"`+pubsub.TopicLogCreated+`"`) {
		t.Errorf("body %q payload not enveloped under the topic name", body)
	}
}

func TestStreamStopsOnDisconnectWithoutPublishes(t *testing.T) {
	broker := pubsub.NewBroker()
	h := NewSubscriptionHandler(broker)

	req := httptest.NewRequest(http.MethodGet, "/"+pubsub.TopicUserCreated, nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.stream(pubsub.TopicUserCreated)(rec, req)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not stop after disconnect")
	}
}
