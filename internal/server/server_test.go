package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/monadicstack/welcome/internal/server"
	"github.com/monadicstack/welcome/rpc/errors"
	"github.com/monadicstack/welcome/rpc/unary"
	"github.com/monadicstack/welcome/welcome"
	welcomerpc "github.com/monadicstack/welcome/welcome/gen"
	"github.com/stretchr/testify/suite"
)

type ServerSuite struct {
	suite.Suite
}

func (suite *ServerSuite) TestNew_defaults() {
	s := server.New(welcome.WelcomeServiceHandler{})
	suite.Equal(":9090", s.Addr)
	suite.Equal(10*time.Second, s.ShutdownTimeout)

	s = server.New(welcome.WelcomeServiceHandler{},
		server.WithAddr("127.0.0.1:7000"),
		server.WithShutdownTimeout(time.Second),
	)
	suite.Equal("127.0.0.1:7000", s.Addr)
	suite.Equal(time.Second, s.ShutdownTimeout)
}

func (suite *ServerSuite) TestHandler_health() {
	handler := server.New(welcome.WelcomeServiceHandler{}).Handler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", server.HealthPath, nil))
	suite.Equal(200, w.Code)

	body := map[string]string{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal("ok", body["status"])
}

// One listener answers every transport.
func (suite *ServerSuite) TestServe() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	suite.Require().NoError(err)
	address := "http://" + listener.Addr().String()

	s := server.New(welcome.WelcomeServiceHandler{Greeting: "Welcome aboard, %s!"}, server.WithShutdownTimeout(time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, listener)
	}()

	clients := map[string]welcome.WelcomeService{
		"http":    welcomerpc.NewWelcomeServiceClient(address),
		"connect": welcomerpc.NewWelcomeServiceConnectClient(address),
		"grpc":    welcomerpc.NewWelcomeServiceConnectClient(address, unary.WithProtocol(unary.ProtocolGRPC)),
		"grpcweb": welcomerpc.NewWelcomeServiceConnectClient(address, unary.WithProtocol(unary.ProtocolGRPCWeb)),
	}
	for name, client := range clients {
		response, err := client.Hello(context.Background(), &welcome.HelloRequest{Name: "Ada"})
		suite.Require().NoError(err, name)
		suite.Equal("Welcome aboard, Ada!", response.Greet, name)

		_, err = client.Hello(context.Background(), &welcome.HelloRequest{})
		suite.True(errors.IsBadRequest(err), "%s: %v", name, err)
	}

	res, err := http.Get(address + server.HealthPath)
	suite.Require().NoError(err)
	_ = res.Body.Close()
	suite.Equal(200, res.StatusCode)

	cancel()
	select {
	case err = <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("server did not shut down")
	}
}

func (suite *ServerSuite) TestRun_badAddress() {
	s := server.New(welcome.WelcomeServiceHandler{}, server.WithAddr("not-a-port"))
	err := s.Run(context.Background())
	suite.Require().Error(err)
	suite.Contains(err.Error(), "listen on not-a-port")
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}
