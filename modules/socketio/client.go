package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds the initial connection when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Config describes the server to connect to and the remote events to
// forward.
type Config struct {
	URL                string
	Namespace          string
	Events             []string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Dispatcher delivers a remote event to the host.
type Dispatcher func(ctx context.Context, event string, args ...any) error

// Client is a connected socket.io client.
type Client struct {
	io     *socket.Socket
	logger *slog.Logger
}

// Dial connects to the server and forwards every configured event to
// dispatch. It blocks until the connection is established or fails.
func Dial(ctx context.Context, cfg Config, dispatch Dispatcher) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("component", "socketio", "url", cfg.URL)
	logger.Info("Connecting to socket.io server...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("socket.io URL %q needs a scheme and host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)
	c := &Client{io: io, logger: logger}

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "namespace", cfg.Namespace, "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})
	for _, event := range cfg.Events {
		io.On(types.EventName(event), c.forward(ctx, event, dispatch))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// forward returns the listener for one remote event. Dispatch failures are
// logged; the socket keeps running.
func (c *Client) forward(ctx context.Context, event string, dispatch Dispatcher) func(...any) {
	return func(args ...any) {
		c.logger.Debug("Remote event received.", "event", event, "args", len(args))
		if err := dispatch(ctx, event, args...); err != nil {
			c.logger.Error("Remote event dispatch failed.", "event", event, "error", err)
		}
	}
}

// Emit sends an event to the server.
func (c *Client) Emit(event string, args ...any) error {
	c.io.Emit(event, args...)
	return nil
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.logger.Info("Disconnecting socket.io client", "sid", c.io.Id())
	c.io.Disconnect()
}
