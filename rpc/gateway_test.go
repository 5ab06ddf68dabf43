package rpc_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/monadicstack/welcome/rpc"
	"github.com/monadicstack/welcome/rpc/metadata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
)

type GatewaySuite struct {
	suite.Suite
	HTTPClient *http.Client
}

func (suite *GatewaySuite) SetupTest() {
	suite.HTTPClient = &http.Client{Timeout: 1 * time.Second}
}

func (suite *GatewaySuite) TestNewGateway() {
	gateway := rpc.NewGateway()
	suite.Require().NotNil(gateway.Binder, "Gateway should have binder by default")
	suite.Require().Equal("", gateway.PathPrefix, "Gateway should not have a path prefix by default")
	suite.Require().Empty(gateway.Endpoints())

	gateway = rpc.NewGateway(
		func(g *rpc.Gateway) { g.Binder = nil },
		func(g *rpc.Gateway) { g.Name = "Foo" },
		rpc.WithPathPrefix("/v1"),
		rpc.WithPathPrefix("/v2"),
		func(g *rpc.Gateway) { g.Name = "Bar" },
	)
	suite.Require().Nil(gateway.Binder, "Gateway should have functional options applied in order")
	suite.Require().Equal("/v2", gateway.PathPrefix, "Gateway should have functional options applied in order")
	suite.Require().Equal("Bar", gateway.Name, "Gateway should have functional options applied in order")
}

// Nothing registered means nothing routes, not even the "obvious" service paths.
func (suite *GatewaySuite) TestNoRoutes() {
	server := httptest.NewServer(rpc.NewGateway(func(g *rpc.Gateway) { g.Name = "WelcomeService" }))
	defer server.Close()

	status, _ := suite.request(server, "GET", "/", "")
	suite.Equal(404, status)
	status, _ = suite.request(server, "POST", "/WelcomeService.Hello", "")
	suite.Equal(404, status)
}

func (suite *GatewaySuite) TestRegister() {
	gateway := rpc.NewGateway(func(g *rpc.Gateway) { g.Name = "WelcomeService" })
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			suite.respond(w, 200, "hello")
		},
	})
	gateway.Register(rpc.Endpoint{
		Method:      "get",
		Path:        "/greeting/:name",
		ServiceName: "WelcomeService",
		Name:        "Lookup",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			params := httptreemux.ContextParams(req.Context())
			suite.respond(w, 202, "hi "+params["name"])
		},
	})
	gateway.Register(rpc.Endpoint{
		Method:      "DELETE",
		Path:        "/greeting/:name",
		ServiceName: "WelcomeService",
		Name:        "Forget",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			suite.respond(w, 204, "")
		},
	})

	server := httptest.NewServer(gateway)
	defer server.Close()

	status, body := suite.request(server, "POST", "/WelcomeService.Hello", `{"name":"Ada"}`)
	suite.Equal(200, status)
	suite.Equal("hello", body)

	status, body = suite.request(server, "GET", "/greeting/ada", "")
	suite.Equal(202, status)
	suite.Equal("hi ada", body)

	status, _ = suite.request(server, "DELETE", "/greeting/ada", "")
	suite.Equal(204, status)

	// Registering two methods on the same path must not blow up on the implicit OPTIONS route.
	status, _ = suite.request(server, "OPTIONS", "/greeting/ada", "")
	suite.Equal(405, status, "Gateway missing auto-OPTIONS route")
	status, _ = suite.request(server, "OPTIONS", "/WelcomeService.Hello", "")
	suite.Equal(405, status, "Gateway missing auto-OPTIONS route")
	status, _ = suite.request(server, "OPTIONS", "/WelcomeService.Goodbye", "")
	suite.Equal(404, status, "Gateway should not accept OPTIONS for unknown paths")

	endpoints := gateway.Endpoints()
	suite.Require().Len(endpoints, 3)
	suite.Equal("WelcomeService.Hello", endpoints[0].String())
	suite.Equal("WelcomeService.Forget", endpoints[1].String())
	suite.Equal("WelcomeService.Lookup", endpoints[2].String())
}

func (suite *GatewaySuite) TestPathPrefix() {
	gateway := rpc.NewGateway(rpc.WithPathPrefix("v2"))
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			endpoint := rpc.EndpointFromContext(req.Context())
			suite.respond(w, 200, endpoint.Path)
		},
	})
	server := httptest.NewServer(gateway)
	defer server.Close()

	status, body := suite.request(server, "POST", "/v2/WelcomeService.Hello", "{}")
	suite.Equal(200, status)
	suite.Equal("/WelcomeService.Hello", body, "Endpoint path should not include the gateway prefix")

	status, _ = suite.request(server, "POST", "/WelcomeService.Hello", "{}")
	suite.Equal(404, status)
}

// Middleware should fire in the order given, after the endpoint is on the context.
func (suite *GatewaySuite) TestMiddleware() {
	var mutex sync.Mutex
	var sequence []string
	appendSequence := func(value string) {
		mutex.Lock()
		defer mutex.Unlock()
		sequence = append(sequence, value)
	}
	mw := func(name string) rpc.MiddlewareFunc {
		return func(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
			appendSequence(name + ":" + rpc.EndpointFromContext(req.Context()).String())
			next(w, req)
		}
	}

	gateway := rpc.NewGateway(rpc.WithMiddlewareFunc(mw("A"), mw("B")))
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			appendSequence("handler")
			suite.respond(w, 200, "ok")
		},
	})
	server := httptest.NewServer(gateway)
	defer server.Close()

	status, _ := suite.request(server, "POST", "/WelcomeService.Hello", "{}")
	suite.Equal(200, status)
	mutex.Lock()
	defer mutex.Unlock()
	suite.Equal([]string{"A:WelcomeService.Hello", "B:WelcomeService.Hello", "handler"}, sequence)
}

func (suite *GatewaySuite) TestMiddleware_shortCircuit() {
	gateway := rpc.NewGateway(rpc.WithMiddlewareFunc(func(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
		w.WriteHeader(418)
	}))
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			suite.Fail("handler should not run when middleware short circuits")
		},
	})
	server := httptest.NewServer(gateway)
	defer server.Close()

	status, _ := suite.request(server, "POST", "/WelcomeService.Hello", "{}")
	suite.Equal(418, status)
}

func (suite *GatewaySuite) TestRecoverFromPanic() {
	gateway := rpc.NewGateway()
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			panic("out of my element")
		},
	})
	server := httptest.NewServer(gateway)
	defer server.Close()

	status, _ := suite.request(server, "POST", "/WelcomeService.Hello", "{}")
	suite.Equal(500, status)
}

func (suite *GatewaySuite) TestWithLogger() {
	logs := &syncBuffer{}
	gateway := rpc.NewGateway(rpc.WithLogger(zerolog.New(logs)))
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			suite.respond(w, 400, "nope")
		},
	})
	server := httptest.NewServer(gateway)
	defer server.Close()

	status, _ := suite.request(server, "POST", "/WelcomeService.Hello", "{}")
	suite.Equal(400, status)

	line := logs.String()
	suite.Contains(line, `"level":"warn"`)
	suite.Contains(line, `"endpoint":"WelcomeService.Hello"`)
	suite.Contains(line, `"status":400`)
	suite.Contains(line, `"method":"POST"`)
}

func (suite *GatewaySuite) TestRestoreMetadata() {
	logs := &syncBuffer{}
	gateway := rpc.NewGateway(rpc.WithLogger(zerolog.New(logs)))
	gateway.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			suite.respond(w, 200, `"`+metadata.TraceID(req.Context())+`"`)
		},
	})
	server := httptest.NewServer(gateway)
	defer server.Close()

	// Going through rpc.Client proves both halves: the client writes the header, the gateway reads it.
	client := rpc.NewClient("WelcomeService", server.URL)
	ctx := metadata.WithValue(context.Background(), metadata.KeyTraceID, "abc123")
	traceID := ""
	suite.Require().NoError(client.Invoke(ctx, "POST", "/WelcomeService.Hello", struct{}{}, &traceID))
	suite.Equal("abc123", traceID)
	suite.Contains(logs.String(), `"trace_id":"abc123"`)

	status, _ := suite.requestWithHeader(server, "POST", "/WelcomeService.Hello", "{}", metadata.RequestHeader, "{nope")
	suite.Equal(400, status)
}

func (suite *GatewaySuite) TestEndpointFromContext_missing() {
	suite.Nil(rpc.EndpointFromContext(nil))
	req := httptest.NewRequest("GET", "/", nil)
	suite.Nil(rpc.EndpointFromContext(req.Context()))
}

func (suite *GatewaySuite) request(server *httptest.Server, method string, path string, body string) (int, string) {
	return suite.requestWithHeader(server, method, path, body, "", "")
}

func (suite *GatewaySuite) requestWithHeader(server *httptest.Server, method string, path string, body string, header string, value string) (int, string) {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	suite.Require().NoError(err)
	if header != "" {
		req.Header.Set(header, value)
	}

	res, err := suite.HTTPClient.Do(req)
	suite.Require().NoError(err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	suite.Require().NoError(err)
	return res.StatusCode, string(data)
}

func (suite *GatewaySuite) respond(w http.ResponseWriter, status int, value string) {
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, value)
}

// syncBuffer lets the test read log output written from the server's goroutine.
type syncBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}
