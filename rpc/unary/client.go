package unary

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
)

// Protocol selects the wire protocol a Client uses.
type Protocol string

// The protocols a connect-go client can speak.
const (
	ProtocolConnect Protocol = "connect"
	ProtocolGRPC    Protocol = "grpc"
	ProtocolGRPCWeb Protocol = "grpcweb"
)

// ParseProtocol accepts "connect", "grpc", "grpcweb" (or "grpc-web"), case-insensitive.
func ParseProtocol(value string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "connect":
		return ProtocolConnect, nil
	case "grpc":
		return ProtocolGRPC, nil
	case "grpcweb", "grpc-web":
		return ProtocolGRPCWeb, nil
	default:
		return "", fmt.Errorf("unsupported protocol %q", value)
	}
}

// ClientOption customizes a Client built by NewClient().
type ClientOption func(*clientConfig)

type clientConfig struct {
	protocol   Protocol
	httpClient connect.HTTPClient
	timeout    time.Duration
	options    []connect.ClientOption
}

// WithProtocol picks the wire protocol. gRPC requires HTTP/2; unless you supply your own
// HTTP client, the default one for gRPC speaks HTTP/2 over cleartext (h2c).
func WithProtocol(protocol Protocol) ClientOption {
	return func(config *clientConfig) {
		config.protocol = protocol
	}
}

// WithHTTPClient overrides the HTTP client used to send requests.
func WithHTTPClient(httpClient connect.HTTPClient) ClientOption {
	return func(config *clientConfig) {
		config.httpClient = httpClient
	}
}

// WithTimeout sets the timeout of the default HTTP client (30 seconds otherwise).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(config *clientConfig) {
		config.timeout = timeout
	}
}

// WithConnectOptions passes raw connect-go options through (interceptors, compression, ...).
func WithConnectOptions(options ...connect.ClientOption) ClientOption {
	return func(config *clientConfig) {
		config.options = append(config.options, options...)
	}
}

// Client calls one unary procedure on a remote handler.
type Client[Req, Res any] struct {
	// Procedure is the fully qualified procedure name (e.g. "/welcome.v1.WelcomeService/Hello").
	Procedure string
	// Protocol is the wire protocol this client speaks.
	Protocol Protocol
	client   *connect.Client[Req, Res]
}

// NewClient creates a client for 'procedure' on the server at 'baseURL' (e.g. "http://localhost:9090").
func NewClient[Req, Res any](baseURL string, procedure string, options ...ClientOption) *Client[Req, Res] {
	config := clientConfig{
		protocol: ProtocolConnect,
		timeout:  30 * time.Second,
	}
	for _, option := range options {
		option(&config)
	}
	if config.httpClient == nil {
		config.httpClient = defaultHTTPClient(config.protocol, config.timeout)
	}

	connectOptions := []connect.ClientOption{
		connect.WithCodec(Codec{}),
		connect.WithInterceptors(MetadataInterceptor()),
	}
	switch config.protocol {
	case ProtocolGRPC:
		connectOptions = append(connectOptions, connect.WithGRPC())
	case ProtocolGRPCWeb:
		connectOptions = append(connectOptions, connect.WithGRPCWeb())
	}
	connectOptions = append(connectOptions, config.options...)

	url := strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(procedure, "/")
	return &Client[Req, Res]{
		Procedure: procedure,
		Protocol:  config.protocol,
		client:    connect.NewClient[Req, Res](config.httpClient, url, connectOptions...),
	}
}

// Call sends 'request' and waits for the response. Failures come back as rpc/errors RPCError
// values carrying the HTTP status equivalent of the Connect code.
func (c *Client[Req, Res]) Call(ctx context.Context, request *Req) (*Res, error) {
	response, err := c.client.CallUnary(ctx, connect.NewRequest(request))
	if err != nil {
		return nil, FromConnectError(err)
	}
	return response.Msg, nil
}

func defaultHTTPClient(protocol Protocol, timeout time.Duration) *http.Client {
	if protocol != ProtocolGRPC {
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network string, addr string, _ *tls.Config) (net.Conn, error) {
				dialer := net.Dialer{Timeout: timeout}
				return dialer.DialContext(ctx, network, addr)
			},
		},
	}
}
