// Package feed streams live market events from a websocket endpoint.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-options/internal/logger"
	"github.com/rxtech-lab/argo-options/internal/types"
	"github.com/rxtech-lab/argo-options/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultQueueSize    = 1024
	DefaultPingInterval = 30 * time.Second
)

// subscribeMessage is sent once after connecting.
type subscribeMessage struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

// WebsocketFeed reads market events from a websocket. Each frame holds one
// event or an array of events in the MarketEvent JSON form.
type WebsocketFeed struct {
	url          string
	symbols      []string
	queueSize    int
	pingInterval time.Duration
	dialer       *websocket.Dialer
	validate     *validator.Validate
	logger       *logger.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// Option configures a WebsocketFeed.
type Option func(*WebsocketFeed)

// WithQueueSize sets the buffer of the event channel.
func WithQueueSize(size int) Option {
	return func(f *WebsocketFeed) {
		if size > 0 {
			f.queueSize = size
		}
	}
}

// WithPingInterval sets how often a ping frame is written. Zero disables pings.
func WithPingInterval(interval time.Duration) Option {
	return func(f *WebsocketFeed) {
		f.pingInterval = interval
	}
}

// NewWebsocketFeed creates a feed for url that subscribes to symbols.
func NewWebsocketFeed(url string, symbols []string, log *logger.Logger, opts ...Option) *WebsocketFeed {
	if log == nil {
		log = logger.NewNopLogger()
	}

	f := &WebsocketFeed{
		url:          url,
		symbols:      symbols,
		queueSize:    DefaultQueueSize,
		pingInterval: DefaultPingInterval,
		dialer:       websocket.DefaultDialer,
		validate:     validator.New(),
		logger:       log,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Stream connects and returns the event channel. The channel ends with a
// STOP event when the connection drops and is closed afterwards. Cancelling
// ctx closes the connection.
func (f *WebsocketFeed) Stream(ctx context.Context) (<-chan *types.MarketEvent, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeFeedConnectFailed, err, "failed to connect to %s", f.url)
	}

	if len(f.symbols) > 0 {
		if err := conn.WriteJSON(subscribeMessage{Type: "subscribe", Symbols: f.symbols}); err != nil {
			conn.Close()

			return nil, errors.Wrap(errors.ErrCodeFeedConnectFailed, "failed to subscribe", err)
		}
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.logger.Info("Connected to market feed",
		zap.String("url", f.url),
		zap.Strings("symbols", f.symbols))

	events := make(chan *types.MarketEvent, f.queueSize)
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}

		f.Close()
	}()

	if f.pingInterval > 0 {
		go f.ping(done)
	}

	go f.read(ctx, conn, events, done)

	return events, nil
}

func (f *WebsocketFeed) read(ctx context.Context, conn *websocket.Conn, events chan<- *types.MarketEvent, done chan struct{}) {
	defer close(events)
	defer close(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				f.logger.Error("Market feed read failed",
					zap.Error(errors.Wrap(errors.ErrCodeFeedReadFailed, "websocket read failed", err)))
			}

			f.send(ctx, events, types.NewStopEvent())

			return
		}

		parsed, err := f.Parse(data)
		if err != nil {
			f.logger.Warn("Dropping malformed feed frame", zap.Error(err))

			continue
		}

		for _, event := range parsed {
			if !f.send(ctx, events, event) {
				return
			}

			if event.IsStop() {
				return
			}
		}
	}
}

func (f *WebsocketFeed) send(ctx context.Context, events chan<- *types.MarketEvent, event *types.MarketEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (f *WebsocketFeed) ping(done <-chan struct{}) {
	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			f.mu.Lock()
			conn := f.conn
			f.mu.Unlock()

			if conn == nil {
				return
			}

			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(f.pingInterval)); err != nil {
				f.logger.Debug("Feed ping failed", zap.Error(err))
			}
		}
	}
}

// Close closes the connection. It is safe to call more than once.
func (f *WebsocketFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil {
		return nil
	}

	err := f.conn.Close()
	f.conn = nil

	return err
}

// Parse decodes one frame into events. Bar events get their symbol and
// timestamp from the bar when missing.
func (f *WebsocketFeed) Parse(data []byte) ([]*types.MarketEvent, error) {
	data = bytes.TrimSpace(data)

	var events []*types.MarketEvent

	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to decode event batch", err)
		}
	} else {
		var event types.MarketEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFeedParseFailed, "failed to decode event", err)
		}

		events = append(events, &event)
	}

	for _, event := range events {
		if err := f.normalize(event); err != nil {
			return nil, err
		}
	}

	return events, nil
}

func (f *WebsocketFeed) normalize(event *types.MarketEvent) error {
	if event == nil {
		return errors.New(errors.ErrCodeFeedParseFailed, "null event")
	}

	switch event.Type {
	case types.EventTypeMarketUpdate, types.EventTypeCandleUpdate:
		if event.Bar == nil {
			return errors.Newf(errors.ErrCodeFeedParseFailed, "%s event without a bar", event.Type)
		}

		if event.Bar.Symbol == "" {
			event.Bar.Symbol = event.Symbol
		}

		if err := f.validate.Struct(event.Bar); err != nil {
			return errors.Wrap(errors.ErrCodeFeedParseFailed, "invalid bar", err)
		}

		if event.Symbol == "" {
			event.Symbol = event.Bar.Symbol
		}

		if event.Timestamp.IsZero() {
			event.Timestamp = event.Bar.Time
		}
	case types.EventTypeSentimentUpdate:
		if event.Sentiment == nil {
			return errors.New(errors.ErrCodeFeedParseFailed, "sentiment event without a snapshot")
		}

		if event.Sentiment.Symbol == "" {
			event.Sentiment.Symbol = event.Symbol
		}

		if event.Symbol == "" {
			event.Symbol = event.Sentiment.Symbol
		}
	case types.EventTypeOptionChainUpdate:
		if event.OptionChain == nil {
			return errors.New(errors.ErrCodeFeedParseFailed, "option chain event without a chain")
		}

		if event.OptionChain.Symbol == "" {
			event.OptionChain.Symbol = event.Symbol
		}

		if event.Symbol == "" {
			event.Symbol = event.OptionChain.Symbol
		}
	case types.EventTypeStop:
	default:
		return errors.Newf(errors.ErrCodeFeedParseFailed, "unknown event type %q", event.Type)
	}

	// derived fields are computed by the engine
	event.Structure = nil
	event.Regime = ""

	return nil
}
