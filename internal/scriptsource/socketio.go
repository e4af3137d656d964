package scriptsource

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/vk/compkit/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultSocketEvent is the event name a SocketIO source listens for.
const DefaultSocketEvent = "script:loaded"

// SocketIO receives script load notifications pushed by a Socket.IO
// server. Each event payload is either the script source as a string or an
// object {"src": "...", "globals": {...}}.
type SocketIO struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
}

// Run connects and forwards events until ctx is done. A connection error
// ends the run.
func (s SocketIO) Run(ctx context.Context, emit func(Event)) error {
	event := s.Event
	if event == "" {
		event = DefaultSocketEvent
	}
	namespace := s.Namespace
	if namespace == "" {
		namespace = "/"
	}
	ctx, logger := ctxlog.With(ctx, "source", "socketio", "url", s.URL, "event", event)

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("scriptsource: parse URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if s.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	failed := make(chan error, 1)

	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to script event stream.", "namespace", namespace)
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case failed <- err:
		default:
		}
	})
	io.On(types.EventName(event), func(data ...any) {
		if len(data) == 0 {
			return
		}
		ev, ok := DecodeSocketPayload(data[0])
		if !ok {
			logger.Warn("Ignoring malformed script event.", "payload", data[0])
			return
		}
		emit(ev)
	})

	io.Connect()

	select {
	case <-ctx.Done():
		return nil
	case err := <-failed:
		return fmt.Errorf("scriptsource: socket.io connection: %w", err)
	}
}

// DecodeSocketPayload converts a Socket.IO event argument into an Event.
func DecodeSocketPayload(payload any) (Event, bool) {
	switch p := payload.(type) {
	case string:
		if p == "" {
			return Event{}, false
		}
		return Event{Src: p}, true
	case map[string]any:
		src, _ := p["src"].(string)
		if src == "" {
			return Event{}, false
		}
		globals, _ := p["globals"].(map[string]any)
		return Event{Src: src, Globals: globals}, true
	default:
		return Event{}, false
	}
}
