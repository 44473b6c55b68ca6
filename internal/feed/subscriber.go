package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// Reconnection and liveness parameters.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterPercent  = 0.2

	dialTimeout  = 15 * time.Second
	writeTimeout = 10 * time.Second
	readTimeout  = 90 * time.Second
	pingInterval = 30 * time.Second
)

// TradeHandler is invoked for every parsed trade event, in arrival order.
type TradeHandler func(ctx context.Context, ev domain.TradeEvent)

// Subscriber maintains a websocket connection to the exchange push feed,
// subscribes to the trades topic for the configured assets, and invokes the
// handler for each parsed event. It reconnects with exponential backoff and
// jitter on disconnect.
type Subscriber struct {
	wsURL     string
	assetIDs  []string
	onTrade   TradeHandler
	logger    *slog.Logger
	backoff   time.Duration
	closeOnce sync.Once
	done      chan struct{}
}

// NewSubscriber creates a feed subscriber. assetIDs may be empty to receive
// the unfiltered trade stream.
func NewSubscriber(wsURL string, assetIDs []string, onTrade TradeHandler, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		wsURL:    wsURL,
		assetIDs: assetIDs,
		onTrade:  onTrade,
		logger:   logger.With(slog.String("component", "feed_subscriber")),
		backoff:  initialBackoff,
		done:     make(chan struct{}),
	}
}

// Run connects and consumes the feed until ctx is cancelled or Close is
// called. Connection failures reset into a backoff wait, never a hard exit.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		default:
		}

		if err := s.runConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("feed disconnected, reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("backoff", s.backoff),
			)
			if err := s.waitBackoff(ctx); err != nil {
				return err
			}
			continue
		}
		return nil
	}
}

// Close stops the subscriber.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// runConnection dials, subscribes, and pumps messages until the connection
// breaks or the context ends.
func (s *Subscriber) runConnection(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", s.wsURL, err)
	}
	defer conn.Close()

	if err := s.subscribe(conn); err != nil {
		return err
	}
	s.logger.Info("feed subscribed",
		slog.String("url", s.wsURL),
		slog.Int("assets", len(s.assetIDs)),
	)
	s.backoff = initialBackoff

	// Ping loop keeps the connection alive; the read deadline detects a
	// dead peer.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go s.pingLoop(conn, pingDone)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return fmt.Errorf("feed: set read deadline: %w", err)
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", domain.ErrWSDisconnect)
		}

		events, err := ParseMessage(data)
		if err != nil {
			// Malformed frames are logged and skipped, never fatal.
			s.logger.Warn("dropping malformed feed message",
				slog.String("error", err.Error()),
			)
		}
		for _, ev := range events {
			ev.ReceivedAt = time.Now().UTC()
			if s.onTrade != nil {
				s.onTrade(ctx, ev)
			}
		}
	}
}

// subscribe sends the trades-topic subscription for the configured assets.
func (s *Subscriber) subscribe(conn *websocket.Conn) error {
	sub := map[string]any{
		"action": "subscribe",
		"subscriptions": []map[string]any{
			{
				"topic":  "activity",
				"type":   "trades",
				"assets": s.assetIDs,
			},
		},
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("feed: marshal subscription: %w", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("feed: set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	return nil
}

func (s *Subscriber) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// waitBackoff sleeps for the current backoff (with jitter) and grows it for
// the next attempt.
func (s *Subscriber) waitBackoff(ctx context.Context) error {
	jitter := 1 + (rand.Float64()*2-1)*jitterPercent
	wait := time.Duration(float64(s.backoff) * jitter)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errors.New("feed: closed during backoff")
	case <-time.After(wait):
	}

	s.backoff = time.Duration(float64(s.backoff) * backoffFactor)
	if s.backoff > maxBackoff {
		s.backoff = maxBackoff
	}
	return nil
}
