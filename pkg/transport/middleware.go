package transport

import (
	"context"
	"encoding/json"
)

// Middleware wraps a Transport with additional behavior
type Middleware func(Transport) Transport

// ChainMiddleware composes middlewares around a transport. The first
// middleware in the list becomes the outermost layer.
func ChainMiddleware(t Transport, middlewares ...Middleware) Transport {
	for i := len(middlewares) - 1; i >= 0; i-- {
		t = middlewares[i](t)
	}
	return t
}

// WrappedTransport delegates everything to the inner transport. Embed it
// and override the methods a middleware cares about.
type WrappedTransport struct {
	Inner Transport
}

// Initialize delegates to the inner transport
func (w *WrappedTransport) Initialize(ctx context.Context) error {
	return w.Inner.Initialize(ctx)
}

// Start delegates to the inner transport
func (w *WrappedTransport) Start(ctx context.Context) error {
	return w.Inner.Start(ctx)
}

// Stop delegates to the inner transport
func (w *WrappedTransport) Stop(ctx context.Context) error {
	return w.Inner.Stop(ctx)
}

// SendRequest delegates to the inner transport
func (w *WrappedTransport) SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return w.Inner.SendRequest(ctx, method, params)
}

// SendNotification delegates to the inner transport
func (w *WrappedTransport) SendNotification(ctx context.Context, method string, params interface{}) error {
	return w.Inner.SendNotification(ctx, method, params)
}

// RegisterNotificationHandler delegates to the inner transport
func (w *WrappedTransport) RegisterNotificationHandler(method string, handler NotificationHandler) {
	w.Inner.RegisterNotificationHandler(method, handler)
}

// GenerateID delegates to the inner transport
func (w *WrappedTransport) GenerateID() string {
	return w.Inner.GenerateID()
}
