package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Handler completes one request.
type Handler func(ctx context.Context, req Request) (*Response, error)

// Middleware decorates a Handler. Middleware registered first sees the
// request first and the response last.
type Middleware func(next Handler) Handler

// Client routes completion requests to registered provider adapters.
type Client struct {
	mu         sync.RWMutex
	adapters   map[string]ProviderAdapter
	fallback   string
	middleware []Middleware
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithProvider registers adapter under name.
func WithProvider(name string, adapter ProviderAdapter) ClientOption {
	return func(c *Client) { c.adapters[name] = adapter }
}

// WithDefaultProvider names the adapter used when a request names none.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) { c.fallback = name }
}

// WithMiddleware appends middleware to the call chain.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) { c.middleware = append(c.middleware, mw...) }
}

// NewClient creates a Client. With a single registered adapter and no
// explicit default, that adapter becomes the default.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{adapters: make(map[string]ProviderAdapter)}
	for _, opt := range opts {
		opt(c)
	}
	if c.fallback == "" && len(c.adapters) == 1 {
		for name := range c.adapters {
			c.fallback = name
		}
	}
	return c
}

// RegisterProvider adds adapter after construction. The first adapter
// registered on a client without a default becomes the default.
func (c *Client) RegisterProvider(name string, adapter ProviderAdapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapters[name] = adapter
	if c.fallback == "" {
		c.fallback = name
	}
}

// Complete resolves the adapter for req and calls it through the middleware
// chain. A model written as "provider/model" selects that provider when the
// request names none and the provider is registered.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	c.mu.RLock()
	adapter, req, err := c.route(req)
	chain := c.middleware
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	handler := Handler(adapter.Complete)
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}
	return handler(ctx, req)
}

// route must be called with c.mu held.
func (c *Client) route(req Request) (ProviderAdapter, Request, error) {
	if req.Provider == "" {
		if prefix, model, ok := strings.Cut(req.Model, "/"); ok {
			if _, known := c.adapters[strings.ToLower(prefix)]; known {
				req.Provider, req.Model = strings.ToLower(prefix), model
			}
		}
	}

	name := req.Provider
	if name == "" {
		name = c.fallback
	}
	if name == "" {
		return nil, req, &ConfigurationError{SDKError: SDKError{
			Message: "no provider specified and no default provider configured",
		}}
	}

	adapter, ok := c.adapters[name]
	if !ok {
		return nil, req, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("provider %q is not registered", name),
		}}
	}
	if req.Provider == "" {
		req.Provider = adapter.Name()
	}
	return adapter, req, nil
}

// Close closes every adapter that holds resources.
func (c *Client) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for name, adapter := range c.adapters {
		closer, ok := adapter.(Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
