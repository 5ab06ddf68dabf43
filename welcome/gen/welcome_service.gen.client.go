// !!!!!!! DO NOT EDIT !!!!!!!
// Auto-generated client code from welcome/welcome_service.go
// !!!!!!! DO NOT EDIT !!!!!!!
package welcomerpc

import (
	"context"
	"fmt"

	"github.com/monadicstack/welcome/rpc"
	"github.com/monadicstack/welcome/welcome"
)

// NewWelcomeServiceClient creates an RPC client that conforms to the WelcomeService interface, but delegates
// work to remote instances. You must supply the base address of the remote service gateway instance or
// the load balancer for that service.
func NewWelcomeServiceClient(address string, options ...rpc.ClientOption) *WelcomeServiceClient {
	rpcClient := rpc.NewClient("WelcomeService", address, options...)
	return &WelcomeServiceClient{Client: rpcClient}
}

// WelcomeServiceClient manages all interaction w/ a remote WelcomeService instance by letting you invoke functions
// on this instance as if you were doing it locally (hence... RPC client). Use NewWelcomeServiceClient() to
// properly set one up.
type WelcomeServiceClient struct {
	rpc.Client
}

// Hello produces a greeting for the person named in the request.
func (client *WelcomeServiceClient) Hello(ctx context.Context, request *welcome.HelloRequest) (*welcome.HelloResponse, error) {
	if ctx == nil {
		return nil, fmt.Errorf("precondition failed: nil context")
	}
	if request == nil {
		return nil, fmt.Errorf("precondition failed: nil request")
	}

	response := &welcome.HelloResponse{}
	err := client.Invoke(ctx, "POST", "/WelcomeService.Hello", request, response)
	if err != nil {
		return nil, err
	}
	return response, nil
}

// WelcomeServiceProxy fully implements the WelcomeService interface, but delegates all operations to a "real"
// instance of the service. Embed it in a struct of your choice to "override" or decorate operations; any
// operation you don't define simply delegates to the underlying 'Service' value.
type WelcomeServiceProxy struct {
	Service welcome.WelcomeService
}

func (proxy *WelcomeServiceProxy) Hello(ctx context.Context, request *welcome.HelloRequest) (*welcome.HelloResponse, error) {
	return proxy.Service.Hello(ctx, request)
}
