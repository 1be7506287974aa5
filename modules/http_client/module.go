// Package http_client lets graphs make HTTP requests through a shared
// client.
package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/ceresflow/internal/ctxlog"
	"github.com/specialistvlad/ceresflow/internal/flow"
	"github.com/specialistvlad/ceresflow/internal/port"
	"github.com/specialistvlad/ceresflow/internal/registry"
)

// DefaultTimeout applies when the module is registered without a client.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package. Client
// is shared by every request; a pooled client is created when it is nil.
type Module struct {
	Client *http.Client
}

func newClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Response is the result of one request.
type Response struct {
	StatusCode int
	Body       string
}

// Do performs a request and reads the whole response body. An empty method
// is GET.
func (m *Module) Do(ctx context.Context, method, url, body string) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", method, "url", url)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	logger.Info("Received HTTP response", "status", resp.Status)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: string(raw)}, nil
}

// RequestNode sends a request and continues on "then" once the response is
// read. Transport failures continue on "failed" with the message on
// "error"; when "failed" is not connected they fail the traversal.
type RequestNode struct {
	flow.Base
	m *Module

	URL    port.Port[string]
	Method port.Port[string]
	Body   port.Port[string]

	Status   port.Port[int]
	Response port.Port[string]
	Error    port.Port[string]

	Then   flow.NodePort
	Failed flow.NodePort
}

func (n *RequestNode) Execute(ctx context.Context, ec *flow.ExecutionContext) error {
	resp, err := n.m.Do(ctxlog.WithLogger(ctx, ec.Logger()), n.Method.Value(), n.URL.Value(), n.Body.Value())
	if err != nil {
		if !n.Failed.Connected() {
			return err
		}
		n.Status.SetValue(0)
		n.Response.SetValue("")
		n.Error.SetValue(err.Error())
		ec.Next(&n.Failed)
		return nil
	}
	n.Status.SetValue(resp.StatusCode)
	n.Response.SetValue(resp.Body)
	n.Error.SetValue("")
	ec.Next(&n.Then)
	return nil
}

// Register registers the request node and the Http functions.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = newClient(DefaultTimeout)
	}
	r.RegisterNode(&flow.Descriptor{
		TypeName:    "http.request",
		Category:    "http",
		Executable:  true,
		Description: "Sends an HTTP request.",
		New:         func() flow.Node { return &RequestNode{m: m} },
		Ports: []flow.PortSpec{
			flow.Input("url", func(n *RequestNode) *port.Port[string] { return &n.URL }),
			flow.Input("method", func(n *RequestNode) *port.Port[string] { return &n.Method }),
			flow.Input("body", func(n *RequestNode) *port.Port[string] { return &n.Body }),
			flow.Output("status", func(n *RequestNode) *port.Port[int] { return &n.Status }),
			flow.Output("response", func(n *RequestNode) *port.Port[string] { return &n.Response }),
			flow.Output("error", func(n *RequestNode) *port.Port[string] { return &n.Error }),
			flow.Exec("then", func(n *RequestNode) *flow.NodePort { return &n.Then }),
			flow.Exec("failed", func(n *RequestNode) *flow.NodePort { return &n.Failed }),
		},
	})
	registry.Func1(r, "Http", "Get", func(ctx context.Context, url string) (string, error) {
		resp, err := m.Do(ctx, http.MethodGet, url, "")
		if err != nil {
			return "", err
		}
		return resp.Body, nil
	})
	registry.Func2(r, "Http", "Post", func(ctx context.Context, url, body string) (int, error) {
		resp, err := m.Do(ctx, http.MethodPost, url, body)
		if err != nil {
			return 0, err
		}
		return resp.StatusCode, nil
	})
	registry.Func2(r, "Http", "Upload", m.Upload)
}
