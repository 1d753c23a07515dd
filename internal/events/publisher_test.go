package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bezmoradi/keygrab/internal/logging"
)

type sink struct {
	url      string
	events   chan Event
	closes   chan int
	accepted chan struct{}
}

// newSink starts a websocket server that records every event it receives.
func newSink(t *testing.T) *sink {
	t.Helper()
	s := &sink{
		events:   make(chan Event, 16),
		closes:   make(chan int, 4),
		accepted: make(chan struct{}, 4),
	}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.accepted <- struct{}{}
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ce, ok := err.(*websocket.CloseError); ok {
					s.closes <- ce.Code
				}
				return
			}
			s.events <- ev
		}
	}))
	t.Cleanup(srv.Close)
	s.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return s
}

func (s *sink) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishDeliversEvents(t *testing.T) {
	s := newSink(t)
	p := NewPublisher(s.url, logging.Discard())
	defer p.Close()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypePress, Shortcut: "f9", Timestamp: at}))
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeRelease, Shortcut: "f9", HeldMs: 250}))

	first := s.next(t)
	assert.Equal(t, TypePress, first.Type)
	assert.True(t, at.Equal(first.Timestamp))

	second := s.next(t)
	assert.Equal(t, TypeRelease, second.Type)
	assert.Equal(t, int64(250), second.HeldMs)
	assert.False(t, second.Timestamp.IsZero(), "timestamp is filled in")

	assert.Len(t, s.accepted, 1, "one connection reused")
}

func TestCloseSendsCloseFrame(t *testing.T) {
	s := newSink(t)
	p := NewPublisher(s.url, logging.Discard())
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeSessionStart, Shortcut: "super+alt+d"}))
	s.next(t)

	p.Close()
	p.Close()

	select {
	case code := <-s.closes:
		assert.Equal(t, websocket.CloseNormalClosure, code)
	case <-time.After(2 * time.Second):
		t.Fatal("no close frame")
	}
	assert.ErrorIs(t, p.Publish(context.Background(), Event{Type: TypePress}), errClosed)
}

func TestPublishUnreachable(t *testing.T) {
	p := NewPublisher("ws://127.0.0.1:1/none", logging.Discard())
	defer p.Close()
	assert.Error(t, p.Publish(context.Background(), Event{Type: TypePress, Shortcut: "f9"}))
}
