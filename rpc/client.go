package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/monadicstack/welcome/rpc/errors"
	"github.com/monadicstack/welcome/rpc/metadata"
)

// NewClient constructs the RPC client that the typed clients in welcome/gen embed. It knows
// how to marshal requests, talk to a remote gateway and unmarshal responses or errors.
func NewClient(name string, addr string, options ...ClientOption) Client {
	defaultTimeout := 30 * time.Second
	client := Client{
		HTTP: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: defaultTimeout}).DialContext,
				TLSHandshakeTimeout: defaultTimeout,
			},
		},
		Name:       name,
		BaseURL:    strings.TrimSuffix(addr, "/"),
		middleware: clientMiddlewarePipeline{},
	}
	for _, option := range options {
		option(&client)
	}

	mw := clientMiddlewarePipeline{writeClientHeaders(client.Name), writeMetadataHeader}
	client.middleware = append(mw, client.middleware...)
	client.roundTrip = client.middleware.Then(client.do)
	return client
}

// ClientOption is a single setting that modifies the RPC client built by NewClient().
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client (30 second timeout) with your own.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(rpcClient *Client) {
		rpcClient.HTTP = httpClient
	}
}

// WithClientMiddleware runs these functions around every outbound request.
func WithClientMiddleware(funcs ...ClientMiddlewareFunc) ClientOption {
	return func(rpcClient *Client) {
		rpcClient.middleware = append(rpcClient.middleware, funcs...)
	}
}

// WithClientPathPrefix sets the path segment between the host and the endpoint path. It
// should match the gateway's prefix.
func WithClientPathPrefix(prefix string) ClientOption {
	return func(rpcClient *Client) {
		rpcClient.PathPrefix = prefix
	}
}

// Client manages all RPC communication with a remote gateway over HTTP.
type Client struct {
	// HTTP does the raw request/response work.
	HTTP *http.Client
	// BaseURL is the protocol/host/port prefix for all endpoints (e.g. "http://localhost:9090").
	BaseURL string
	// PathPrefix sits between the host and the endpoint path (e.g. "v2").
	PathPrefix string
	// Name is the display name of the remote service; used for tracing headers and errors.
	Name string

	middleware clientMiddlewarePipeline
	roundTrip  RoundTripperFunc
}

// RoundTripperFunc sends a single request and returns its response.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// ClientMiddlewareFunc runs some work around an outbound request; call 'next' to continue.
type ClientMiddlewareFunc func(request *http.Request, next RoundTripperFunc) (*http.Response, error)

type clientMiddlewarePipeline []ClientMiddlewareFunc

func (pipeline clientMiddlewarePipeline) Then(handler RoundTripperFunc) RoundTripperFunc {
	for i := len(pipeline) - 1; i >= 0; i-- {
		mw := pipeline[i]
		next := handler
		handler = func(request *http.Request) (*http.Response, error) {
			return mw(request, next)
		}
	}
	return handler
}

// Invoke performs the request/response cycle for one operation on the remote service. The
// generated client methods call this; you normally won't.
func (c Client) Invoke(ctx context.Context, method string, path string, serviceRequest interface{}, serviceResponse interface{}) error {
	method = strings.ToUpper(method)

	address, err := c.buildURL(method, path, serviceRequest)
	if err != nil {
		return fmt.Errorf("rpc: unable to build url: %w", err)
	}

	body, err := c.createRequestBody(method, serviceRequest)
	if err != nil {
		return fmt.Errorf("rpc: unable to create request body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, method, address, body)
	if err != nil {
		return fmt.Errorf("rpc: unable to create request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.roundTrip(request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Timeout("rpc: %s: %v", c.Name, ctxErr)
		}
		return errors.Unavailable("rpc: round trip error: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		return c.newStatusError(response)
	}
	if serviceResponse == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.NewDecoder(response.Body).Decode(serviceResponse); err != nil && err != io.EOF {
		return fmt.Errorf("rpc: unable to decode response: %w", err)
	}
	return nil
}

func (c Client) do(request *http.Request) (*http.Response, error) {
	if c.HTTP == nil {
		return nil, fmt.Errorf("no http client configured")
	}
	return c.HTTP.Do(request)
}

// newStatusError turns a 400+ response into an RPCError with the same status, keeping the
// server's message when we can find one.
func (c Client) newStatusError(r *http.Response) error {
	errData, _ := io.ReadAll(r.Body)
	contentType := r.Header.Get("Content-Type")

	// Not JSON: most likely the plain text you'd get from http.Error().
	if !strings.HasPrefix(contentType, "application/json") {
		return errors.New(r.StatusCode, "%s", strings.TrimSpace(string(errData)))
	}

	// JSON errors come as either a bare string or {"status":404, "message":"..."}.
	trimmed := bytes.TrimSpace(errData)
	switch {
	case bytes.HasPrefix(trimmed, []byte(`"`)):
		message := ""
		_ = json.Unmarshal(trimmed, &message)
		return errors.New(r.StatusCode, "%s", message)
	case bytes.HasPrefix(trimmed, []byte(`{`)):
		rpcErr := errors.RPCError{}
		_ = json.Unmarshal(trimmed, &rpcErr)
		return errors.New(r.StatusCode, "%s", rpcErr.Message)
	default:
		return errors.New(r.StatusCode, "rpc error")
	}
}

func (c Client) createRequestBody(method string, serviceRequest interface{}) (io.Reader, error) {
	if !shouldEncodeUsingBody(method) {
		return nil, nil
	}
	body := &bytes.Buffer{}
	err := json.NewEncoder(body).Encode(serviceRequest)
	return body, err
}

// buildURL resolves the endpoint address. Methods without a body (GET, DELETE, ...) carry the
// request's top-level fields on the query string.
func (c Client) buildURL(method string, path string, serviceRequest interface{}) (string, error) {
	address := c.BaseURL + toEndpointPath(c.PathPrefix, path)
	if shouldEncodeUsingBody(method) || serviceRequest == nil {
		return address, nil
	}

	fields := map[string]interface{}{}
	data, err := json.Marshal(serviceRequest)
	if err != nil {
		return "", err
	}
	if err = json.Unmarshal(data, &fields); err != nil {
		return "", err
	}

	query := url.Values{}
	for key, value := range fields {
		if value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			query.Set(key, v)
		default:
			encoded, _ := json.Marshal(v)
			query.Set(key, string(encoded))
		}
	}
	if len(query) == 0 {
		return address, nil
	}
	return address + "?" + query.Encode(), nil
}

func shouldEncodeUsingBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// writeClientHeaders identifies the calling client so the remote side can log it.
func writeClientHeaders(name string) ClientMiddlewareFunc {
	return func(request *http.Request, next RoundTripperFunc) (*http.Response, error) {
		if name != "" {
			request.Header.Set(HeaderClientName, name+"Client")
		}
		return next(request)
	}
}

// writeMetadataHeader sends the context's metadata values along so they follow us to the remote service.
func writeMetadataHeader(request *http.Request, next RoundTripperFunc) (*http.Response, error) {
	encoded, err := metadata.Encode(request.Context())
	if err != nil {
		return nil, err
	}
	if encoded != "" {
		request.Header.Set(metadata.RequestHeader, encoded)
	}
	return next(request)
}

// HeaderClientName is set on every outbound request with the name of the calling client.
const HeaderClientName = "X-RPC-Client"
