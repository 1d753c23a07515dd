// Package events forwards shortcut activity to an external websocket
// endpoint, so other programs can react to shortcuts without grabbing
// keyboards themselves.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 2 * time.Second
	dialTimeout  = 3 * time.Second
)

// Event types.
const (
	TypePress        = "press"
	TypeRelease      = "release"
	TypeSessionStart = "session_start"
	TypeSessionStop  = "session_stop"
)

type Event struct {
	Type      string    `json:"type"`
	Shortcut  string    `json:"shortcut"`
	Timestamp time.Time `json:"timestamp"`
	HeldMs    int64     `json:"held_ms,omitempty"`
}

var errClosed = errors.New("publisher closed")

// Publisher writes events as JSON text messages. The connection is opened on
// first use and re-dialed once when a write fails.
type Publisher struct {
	url    string
	dialer *websocket.Dialer
	log    *clog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func NewPublisher(url string, logger *clog.Logger) *Publisher {
	return &Publisher{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
		log:    logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errClosed
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	if p.conn != nil {
		if err := p.writeLocked(ev); err == nil {
			return nil
		}
		p.log.Debug("event stream write failed, reconnecting", "url", p.url)
		p.dropLocked()
	}

	if err := p.connectLocked(ctx); err != nil {
		return err
	}
	if err := p.writeLocked(ev); err != nil {
		p.dropLocked()
		return fmt.Errorf("sending %s event: %w", ev.Type, err)
	}
	return nil
}

func (p *Publisher) connectLocked(ctx context.Context) error {
	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return fmt.Errorf("connecting to event stream %s: %w", p.url, err)
	}
	p.conn = conn
	go p.drain(conn)
	p.log.Debug("event stream connected", "url", p.url)
	return nil
}

// drain reads and discards incoming messages so control frames (ping,
// close) are handled. It returns once the connection fails or is closed.
func (p *Publisher) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.log.Debug("event stream read ended", "err", err)
			}
			p.mu.Lock()
			if p.conn == conn {
				p.dropLocked()
			}
			p.mu.Unlock()
			return
		}
	}
}

func (p *Publisher) writeLocked(ev Event) error {
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return p.conn.WriteJSON(ev)
}

func (p *Publisher) dropLocked() {
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close sends a close frame and releases the connection. Later publishes
// fail.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.conn != nil {
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout))
		p.dropLocked()
	}
}
