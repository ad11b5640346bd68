// Package push is the client side of the HR push channel, which delivers
// completed identity-provider logins.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/domain"
)

const (
	DefaultPongWait     = 60 * time.Second
	DefaultPingInterval = 30 * time.Second

	writeWait = 10 * time.Second
)

// Handler receives every decoded event. Each call runs on its own goroutine,
// so a slow handler never stalls the read loop.
type Handler func(ctx context.Context, ev domain.LoginEvent)

type joinMessage struct {
	Type  string `json:"type"`
	Group string `json:"group"`
}

// Client holds a persistent connection to the push service and re-joins the
// client's group after every reconnect.
type Client struct {
	URL      string
	ClientID string

	Dialer *websocket.Dialer
	Logger *slog.Logger

	PongWait     time.Duration
	PingInterval time.Duration

	// NewBackOff builds the reconnect policy. The default never gives up.
	NewBackOff func() backoff.BackOff
}

func NewClient(url, clientID string, logger *slog.Logger) *Client {
	return &Client{
		URL:          url,
		ClientID:     clientID,
		Dialer:       websocket.DefaultDialer,
		Logger:       logger,
		PongWait:     DefaultPongWait,
		PingInterval: DefaultPingInterval,
		NewBackOff:   defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}

// Run connects and dispatches events until ctx is cancelled, reconnecting
// with backoff in between. It returns once every dispatched handler has
// returned.
func (c *Client) Run(ctx context.Context, h Handler) error {
	var handlers sync.WaitGroup
	defer handlers.Wait()

	b := c.NewBackOff()
	for {
		joined, err := c.runOnce(ctx, h, &handlers)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if joined {
			// Connection was healthy, start over from the shortest delay
			b.Reset()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("push: giving up: %w", err)
		}
		c.Logger.WarnContext(ctx, "push_disconnected", "error", err, "retry_in", wait)

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// runOnce handles a single connection. joined reports whether the group
// join went through before the connection dropped.
func (c *Client) runOnce(ctx context.Context, h Handler, handlers *sync.WaitGroup) (joined bool, err error) {
	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(joinMessage{Type: "join", Group: c.ClientID}); err != nil {
		return false, fmt.Errorf("join: %w", err)
	}
	c.Logger.InfoContext(ctx, "push_joined", "group", c.ClientID)

	_ = conn.SetReadDeadline(time.Now().Add(c.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go c.keepAlive(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.PongWait))

		var ev domain.LoginEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.Logger.DebugContext(ctx, "push_message_invalid", "error", err)
			continue
		}
		if ev.EventType == "" {
			continue
		}

		handlers.Add(1)
		go func() {
			defer handlers.Done()
			h(ctx, ev)
		}()
	}
}

// keepAlive pings until done is closed. WriteControl is safe to call
// alongside the reader.
func (c *Client) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return
			}
		case <-done:
			return
		}
	}
}
