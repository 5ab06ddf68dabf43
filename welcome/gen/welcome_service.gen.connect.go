// !!!!!!! DO NOT EDIT !!!!!!!
// Auto-generated Connect/gRPC code from welcome/welcome_service.go
// !!!!!!! DO NOT EDIT !!!!!!!
package welcomerpc

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/monadicstack/welcome/rpc/unary"
	"github.com/monadicstack/welcome/welcome"
)

const (
	// WelcomeServiceName is the fully qualified name of the service on the Connect/gRPC wire.
	WelcomeServiceName = "welcome.v1.WelcomeService"
	// WelcomeServiceHelloProcedure is the Connect/gRPC procedure for WelcomeService.Hello.
	WelcomeServiceHelloProcedure = "/welcome.v1.WelcomeService/Hello"
)

// NewWelcomeServiceConnectHandler exposes your "real" WelcomeService over Connect, gRPC and gRPC-Web.
// It returns the path prefix to mount the handler on along with the handler itself:
//
//	mux := http.NewServeMux()
//	mux.Handle(welcomerpc.NewWelcomeServiceConnectHandler(service))
//
// gRPC callers need HTTP/2; wrap the mux with h2c if you aren't serving TLS.
func NewWelcomeServiceConnectHandler(service welcome.WelcomeService, options ...connect.HandlerOption) (string, http.Handler) {
	hello := unary.NewHandler[welcome.HelloRequest, welcome.HelloResponse](WelcomeServiceHelloProcedure, service.Hello, options...)

	return "/" + WelcomeServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case WelcomeServiceHelloProcedure:
			hello.ServeHTTP(w, req)
		default:
			http.NotFound(w, req)
		}
	})
}

// NewWelcomeServiceConnectClient creates a WelcomeService implementation that calls a remote
// Connect handler. Pick the wire protocol with unary.WithProtocol().
func NewWelcomeServiceConnectClient(address string, options ...unary.ClientOption) *WelcomeServiceConnectClient {
	return &WelcomeServiceConnectClient{
		hello: unary.NewClient[welcome.HelloRequest, welcome.HelloResponse](address, WelcomeServiceHelloProcedure, options...),
	}
}

// WelcomeServiceConnectClient is the Connect/gRPC flavor of WelcomeServiceClient.
type WelcomeServiceConnectClient struct {
	hello *unary.Client[welcome.HelloRequest, welcome.HelloResponse]
}

// Hello produces a greeting for the person named in the request.
func (client *WelcomeServiceConnectClient) Hello(ctx context.Context, request *welcome.HelloRequest) (*welcome.HelloResponse, error) {
	if ctx == nil {
		return nil, fmt.Errorf("precondition failed: nil context")
	}
	if request == nil {
		return nil, fmt.Errorf("precondition failed: nil request")
	}
	return client.hello.Call(ctx, request)
}
