package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/tmaxmax/go-sse"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
)

// maxEventSize bounds a single SSE event payload, 10MB
const maxEventSize = 10 * 1024 * 1024

// SSETransport speaks MCP over a streaming HTTP connection. The server
// pushes messages on a long-lived GET stream; the first "endpoint" event
// names the URL the client POSTs its own messages back to.
type SSETransport struct {
	*BaseTransport
	config     Config
	httpClient *http.Client

	mu           sync.Mutex
	body         io.ReadCloser
	messageURL   string
	ready        chan struct{}
	done         chan struct{}
	once         sync.Once
	streamCancel context.CancelFunc
}

// newSSETransport creates an SSE transport from a validated config
func newSSETransport(config Config) *SSETransport {
	return &SSETransport{
		BaseTransport: NewBaseTransport(config.Logger),
		config:        config,
		httpClient:    &http.Client{},
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Initialize opens the event stream. The configured headers, including any
// resolved credential, are attached to the GET request.
func (t *SSETransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.body != nil {
		return nil
	}

	// The stream outlives the handshake, so its request runs on its own
	// context; ctx only bounds connection establishment.
	streamCtx, streamCancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.config.Endpoint, nil)
	if err != nil {
		streamCancel()
		return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}

	type dialResult struct {
		resp *http.Response
		err  error
	}
	dialed := make(chan dialResult, 1)
	go func() {
		resp, err := t.httpClient.Do(req)
		dialed <- dialResult{resp, err}
	}()

	var resp *http.Response
	select {
	case r := <-dialed:
		if r.err != nil {
			streamCancel()
			return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint, r.err)
		}
		resp = r.resp
	case <-ctx.Done():
		streamCancel()
		go func() {
			if r := <-dialed; r.resp != nil {
				r.resp.Body.Close()
			}
		}()
		return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint, ctx.Err())
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		streamCancel()
		return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	t.body = resp.Body
	t.streamCancel = streamCancel
	t.logger.Debug("opened event stream", logging.String("endpoint", t.config.Endpoint))
	return nil
}

// Start runs the receive loop. It blocks until the stream ends, the
// context is cancelled, or Stop is called.
func (t *SSETransport) Start(ctx context.Context) error {
	t.mu.Lock()
	body := t.body
	t.mu.Unlock()

	if body == nil {
		return mcperrors.InvalidState("start transport", "not initialized")
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-t.done:
		}
		// Unblocks sse.Read below
		body.Close()
	}()

	readConfig := &sse.ReadConfig{MaxEventSize: maxEventSize}

	for ev, err := range sse.Read(body, readConfig) {
		if err != nil {
			t.Cleanup()
			select {
			case <-t.done:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return mcperrors.ConnectionClosed(string(TypeSSE), err)
		}

		switch ev.Type {
		case "endpoint":
			if err := t.setMessageURL(ev.Data); err != nil {
				t.Cleanup()
				return err
			}
		case "message", "":
			t.DispatchMessage(ctx, []byte(ev.Data), func(data []byte) error {
				return t.post(ctx, data)
			})
		default:
			t.logger.Debug("ignoring event of unknown type", logging.String("type", ev.Type))
		}
	}

	t.Cleanup()
	return nil
}

// setMessageURL records the POST-back URL from the "endpoint" event and
// marks the transport ready to send. A relative endpoint is resolved
// against the stream URL.
func (t *SSETransport) setMessageURL(raw string) error {
	base, err := url.Parse(t.config.Endpoint)
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint, err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint,
			fmt.Errorf("bad endpoint event: %w", err))
	}
	resolved := base.ResolveReference(u).String()
	if resolved == "" {
		return mcperrors.ConnectionFailed(string(TypeSSE), t.config.Endpoint,
			errors.New("empty endpoint event"))
	}

	t.mu.Lock()
	already := t.messageURL != ""
	t.messageURL = resolved
	t.mu.Unlock()

	if !already {
		close(t.ready)
	}
	return nil
}

// waitReady blocks until the endpoint event has arrived
func (t *SSETransport) waitReady(ctx context.Context) error {
	select {
	case <-t.ready:
		return nil
	case <-t.done:
		return mcperrors.ConnectionClosed(string(TypeSSE), nil)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post sends one message to the server's message URL
func (t *SSETransport) post(ctx context.Context, data []byte) error {
	t.mu.Lock()
	messageURL := t.messageURL
	t.mu.Unlock()

	if messageURL == "" {
		return mcperrors.InvalidState("send message", "awaiting endpoint event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messageURL, bytes.NewReader(data))
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeSSE), messageURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return mcperrors.ConnectionFailed(string(TypeSSE), messageURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mcperrors.ConnectionFailed(string(TypeSSE), messageURL,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return nil
}

// SendRequest sends a request and waits for the correlated response, which
// arrives asynchronously on the event stream
func (t *SSETransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if err := t.waitReady(ctx); err != nil {
		return nil, err
	}
	return t.SendRequestVia(ctx, method, params, t.post)
}

// SendNotification sends a one-way message
func (t *SSETransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	if err := t.waitReady(ctx); err != nil {
		return err
	}
	return t.SendNotificationVia(ctx, method, params, t.post)
}

// Stop closes the event stream and releases all pending requests.
// Safe to call more than once.
func (t *SSETransport) Stop(ctx context.Context) error {
	t.once.Do(func() {
		close(t.done)

		t.mu.Lock()
		body := t.body
		cancel := t.streamCancel
		t.mu.Unlock()
		if body != nil {
			_ = body.Close()
		}
		if cancel != nil {
			cancel()
		}

		t.Cleanup()
		t.logger.Debug("sse transport stopped", logging.String("endpoint", t.config.Endpoint))
	})
	return nil
}
