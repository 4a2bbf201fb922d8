package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultOutboundBufferSize = 64

	defaultWebsocketReadBufferSize     = 10000
	defaultWebsocketWriteBufferSize    = 10000
	defaultWebSocketMaxMessageSize     = 64 * 1024
	defaultWebSocketHandshakeTimeout   = 5 * time.Second
	defaultWebSocketCloseWriteDeadline = 2 * time.Second
	defaultWebSocketWriteDeadline      = 5 * time.Second

	// defaultPongWait - defaultPingInterval == is how long we give server to respond
	defaultPingInterval = 20 * time.Second
	defaultPongWait     = 30 * time.Second
)

var (
	ErrDial           = errors.New("unable to connect")
	ErrSendBufferFull = errors.New("outbound buffer is full")
	ErrClosed         = errors.New("transport is closed")
	ErrConnectionLost = errors.New("connection to chat server lost")
)

type (
	Publisher interface {
		Publish(ctx context.Context, payload string) bool
	}

	Config struct {
		Logger     *zerolog.Logger
		Publisher  Publisher
		URL        string
		BufferSize int
	}

	// Client is the chat server connection. Send only enqueues; the sender
	// loop started by Run writes to the socket.
	Client struct {
		pub    Publisher
		url    string
		dialer *websocket.Dialer
		tx     chan string

		mx     *sync.RWMutex
		closed bool

		logger zerolog.Logger
	}
)

func NewClient(cfg Config) *Client {
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultOutboundBufferSize
	}
	return &Client{
		logger: cfg.Logger.With().Str("component", "websocket-client").Logger(),
		pub:    cfg.Publisher,
		url:    cfg.URL,
		tx:     make(chan string, size),
		mx:     &sync.RWMutex{},
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultWebSocketHandshakeTimeout,
			ReadBufferSize:   defaultWebsocketReadBufferSize,
			WriteBufferSize:  defaultWebsocketWriteBufferSize,
		},
	}
}

// Send enqueues text for delivery without blocking.
func (c *Client) Send(text string) error {
	c.mx.RLock()
	defer c.mx.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.tx <- text:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *Client) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		c.mx.Lock()
		c.closed = true
		c.mx.Unlock()
		c.logger.Debug().Msg("client stopped")
		wg.Done()
	}()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		errc <- errors.Join(ErrDial, err)
		return
	}
	c.logger.Info().Str("url", c.url).Msg("connected")

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loops := &sync.WaitGroup{}
	loops.Add(2)
	go func() {
		webSocketReceiver(connCtx, loops, conn, c.pub, &c.logger)
		cancel()
	}()
	go func() {
		webSocketSender(connCtx, loops, conn, c.tx, &c.logger)
		cancel()
	}()

	<-connCtx.Done()
	webSocketCloser(conn, &c.logger)
	loops.Wait()

	if ctx.Err() == nil {
		errc <- ErrConnectionLost
	}
}

func webSocketSender(
	ctx context.Context,
	wg *sync.WaitGroup,
	conn *websocket.Conn,
	tx <-chan string,
	logger *zerolog.Logger,
) {
	pingTicker := time.NewTicker(defaultPingInterval)
	defer func() {
		pingTicker.Stop()
		wg.Done()
	}()
SendLoop:
	for {
		select {
		case <-ctx.Done():
			break SendLoop
		case <-pingTicker.C:
			wsErr := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(defaultWebSocketWriteDeadline))
			if wsErr != nil {
				logger.Error().Err(wsErr).Msg("failed to send ping")
				break SendLoop
			}
			logger.Trace().Msg("ping sent")

		case msg := <-tx:
			wsErr := conn.SetWriteDeadline(time.Now().Add(defaultWebSocketWriteDeadline))
			if wsErr != nil {
				logger.Error().Err(wsErr).Msg("failed to set websocket write deadline")
				break SendLoop
			}
			wsErr = conn.WriteMessage(websocket.TextMessage, []byte(msg))
			if wsErr != nil {
				logger.Error().Err(wsErr).Msg("failed to write outgoing message")
				break SendLoop
			}
			logger.Trace().Int("bytes", len(msg)).Msg("frame sent")
		}
	}
}

func webSocketReceiver(
	ctx context.Context,
	wg *sync.WaitGroup,
	conn *websocket.Conn,
	pub Publisher,
	logger *zerolog.Logger,
) {
	defer wg.Done()

	conn.SetReadLimit(defaultWebSocketMaxMessageSize)
	readDeadLineFunc := func(deadline time.Duration) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	}
	conn.SetPongHandler(func(string) error {
		logger.Trace().Msg("got pong")
		return readDeadLineFunc(defaultPongWait)
	})
	err := readDeadLineFunc(defaultPongWait)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set websocket read deadline")
		return
	}

	for {
		msgType, msg, wsErr := conn.ReadMessage()
		if wsErr != nil {
			switch {
			case ctx.Err() != nil:
			case websocket.IsCloseError(wsErr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway):
				logger.Warn().Err(wsErr).Msg("connection closed")
			default:
				logger.Error().Err(wsErr).Msg("unexpected error during receive")
			}
			return
		}
		if msgType != websocket.TextMessage {
			logger.Debug().Int("type", msgType).Msg("skipping non-text message")
			continue
		}
		_ = readDeadLineFunc(defaultPongWait)
		pub.Publish(ctx, string(msg))
	}
}

func webSocketCloser(conn *websocket.Conn, logger *zerolog.Logger) {
	wsErr := conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(defaultWebSocketCloseWriteDeadline))
	if wsErr != nil && !errors.Is(wsErr, websocket.ErrCloseSent) {
		logger.Debug().Err(wsErr).Msg("failed to send close message")
	}
	wsErr = conn.Close()
	if wsErr != nil {
		logger.Error().Err(wsErr).Msg("failed to close websocket connection")
	}
}
