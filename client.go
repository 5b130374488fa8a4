package niri

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// socketEnv is where the compositor advertises its control socket path.
const socketEnv = "NIRI_SOCKET"

// ErrStreaming is returned by Request and EventStream while a streaming
// connection is active: once the event stream starts, the client carries
// events only, until Close shuts the stream down.
var ErrStreaming = errors.New("client is in event-stream mode")

type (
	Logger interface {
		Info(msg string)
		Warn(msg string)
	}

	Client interface {
		Request(req Request, resResolver ReplyResolver) error
		EventStream() (<-chan Event, <-chan error, error)
		Close() error
	}

	client struct {
		socketPath string
		logger     Logger

		mu     sync.Mutex
		stream *ipcConn
	}
)

// New returns a client for the socket advertised in the NIRI_SOCKET
// environment variable. If the value passed in as a logger is nil, logging
// will be disabled.
func New(logger Logger) (Client, error) {
	path := os.Getenv(socketEnv)
	if path == "" {
		return nil, fmt.Errorf("%s is not set; is the compositor running?", socketEnv)
	}

	return NewWithSocket(path, logger)
}

// NewWithSocket returns a client for the given unix socket path. If the
// value passed in as a logger is nil, logging will be disabled.
// This function may return an errInvalidUnixSocket sentinel error, if the
// socket cannot be dialed.
func NewWithSocket(path string, logger Logger) (Client, error) {
	// The compositor serves one request per connection, so dialing is
	// deferred to each Request/EventStream call. Probe once up front so a
	// bad path fails here rather than on first use.
	conn, err := newIPCConn(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize socket connection: %w", err)
	}

	if err := conn.Close(); err != nil {
		return nil, fmt.Errorf("failed to close probe connection: %v", err)
	}

	if logger != nil {
		logger.Info(fmt.Sprintf("using socket at path %s", path))
	}

	return &client{
		socketPath: path,
		logger:     logger,
	}, nil
}

// Request submits one request and populates its reply into the provided
// resolver. A nil resolver discards the reply payload after checking it for
// a compositor error. Requests are serialized: at most one is in flight at
// a time. While an event stream is active, Request returns ErrStreaming.
func (c *client) Request(req Request, resResolver ReplyResolver) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return ErrStreaming
	}

	msg, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	ipc, err := newIPCConn(c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to initialize socket connection: %w", err)
	}
	defer ipc.Close()

	if err := ipc.Send(msg); err != nil {
		return err
	}

	raw, err := ipc.Receive()
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}

	payload, err := unwrapReply(raw)
	if err != nil {
		return err
	}

	if resResolver == nil {
		return nil
	}

	if err := resResolver(payload); err != nil {
		return fmt.Errorf("failed to unmarshal reply: %v", err)
	}

	return nil
}

// EventStream opens a dedicated connection, puts it into streaming mode and
// returns two channels: one for the events published by the compositor, and
// one for errors that might occur during the subscription. The event
// channel is closed when the compositor closes the connection or Close is
// called.
//
// The first reply on a streaming connection is an acknowledgment, which is
// consumed here; only real events are delivered. Events the library doesn't
// know about are logged and skipped rather than surfaced as errors, so new
// compositor versions don't break existing consumers.
//
// At most one stream may be active per client; a second call returns
// ErrStreaming until Close is called.
func (c *client) EventStream() (<-chan Event, <-chan error, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return nil, nil, ErrStreaming
	}

	msg, err := json.Marshal(RequestEventStream)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	ipc, err := newIPCConn(c.socketPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize socket connection: %w", err)
	}

	if err := ipc.Send(msg); err != nil {
		_ = ipc.Close()
		return nil, nil, err
	}

	// The acknowledgment is a protocol handshake, not an event.
	ack, err := ipc.Receive()
	if err != nil {
		_ = ipc.Close()
		return nil, nil, fmt.Errorf("failed to receive stream acknowledgment: %v", err)
	}

	if _, err := unwrapReply(ack); err != nil {
		_ = ipc.Close()
		return nil, nil, err
	}

	c.stream = &ipc

	resCh, recvErrCh := ipc.ReceiveAsync()

	var (
		eventCh = make(chan Event)
		errCh   = make(chan error, 1)
	)

	go func(resCh chan []byte, recvErrCh chan error) {
		defer close(eventCh)

		for {
			select {
			case err := <-recvErrCh:
				errCh <- err
				return
			case res, ok := <-resCh:
				if !ok {
					return
				}

				var ev Event
				if err := json.Unmarshal(res, &ev); err != nil {
					if errors.Is(err, errUnknownEvent) {
						if c.logger != nil {
							c.logger.Warn(fmt.Sprintf("skipping event: %v", err))
						}
						continue
					}

					errCh <- err
					return
				}

				eventCh <- ev
			}
		}
	}(resCh, recvErrCh)

	return eventCh, errCh, nil
}

// Close shuts down the streaming connection, if one is open. Plain requests
// use short-lived connections and need no cleanup.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	err := c.stream.Close()
	c.stream = nil

	return err
}
