// !!!!!!! DO NOT EDIT !!!!!!!
// Auto-generated server code from welcome/welcome_service.go
// !!!!!!! DO NOT EDIT !!!!!!!
package welcomerpc

import (
	"net/http"

	"github.com/monadicstack/respond"
	"github.com/monadicstack/welcome/rpc"
	"github.com/monadicstack/welcome/welcome"
)

// NewWelcomeServiceGateway accepts your "real" WelcomeService instance (the thing that really does the work), and
// exposes it to other services/clients over RPC. The rpc.Gateway it returns implements http.Handler, so you
// can pass it to any standard library HTTP server of your choice.
//
//	service := welcome.WelcomeServiceHandler{}
//	gateway := welcomerpc.NewWelcomeServiceGateway(service)
//	http.ListenAndServe(":9090", gateway)
//
// Options such as rpc.WithMiddleware() accept any negroni-compatible middleware handlers.
func NewWelcomeServiceGateway(service welcome.WelcomeService, options ...rpc.GatewayOption) rpc.Gateway {
	gw := rpc.NewGateway(options...)
	gw.Name = "WelcomeService"

	gw.Register(rpc.Endpoint{
		Method:      "POST",
		Path:        "/WelcomeService.Hello",
		ServiceName: "WelcomeService",
		Name:        "Hello",
		Handler: func(w http.ResponseWriter, req *http.Request) {
			response := respond.To(w, req)

			serviceRequest := welcome.HelloRequest{}
			if err := gw.Binder.Bind(req, &serviceRequest); err != nil {
				response.Fail(err)
				return
			}

			serviceResponse, err := service.Hello(req.Context(), &serviceRequest)
			response.Reply(200, serviceResponse, err)
		},
	})

	return gw
}
