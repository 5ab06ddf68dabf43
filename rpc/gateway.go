package rpc

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/monadicstack/respond"
	"github.com/monadicstack/welcome/rpc/metadata"
	"github.com/rs/zerolog"
)

// NewGateway creates the HTTP side of an RPC service. The typed constructors in welcome/gen
// call this and then Register() one endpoint per service operation.
func NewGateway(options ...GatewayOption) Gateway {
	router := httptreemux.New()
	gw := Gateway{
		Router:      router,
		routerGroup: router.UsingContext(),
		Binder:      jsonBinder{},
		logger:      zerolog.Nop(),
		middleware:  middlewarePipeline{},
		endpoints:   map[route]Endpoint{},
	}
	for _, option := range options {
		option(&gw)
	}

	// The router runs first and the middleware is attached per endpoint in Register(), so by the
	// time any middleware fires the matched route is known and restoreEndpoint can put it on
	// the context:
	//
	//   ROUTER->recoverFromPanic->restoreEndpoint->restoreMetadata->your_middleware->serviceHandler
	builtIn := middlewarePipeline{
		MiddlewareFunc(gw.recoverFromPanic),
		MiddlewareFunc(restoreEndpoint),
		MiddlewareFunc(restoreMetadata),
	}
	gw.middleware = append(builtIn, gw.middleware...)
	return gw
}

// GatewayOption defines a setting you can apply when creating an RPC gateway via NewGateway().
type GatewayOption func(*Gateway)

// WithPathPrefix mounts every endpoint under a prefix such as "v2".
func WithPathPrefix(prefix string) GatewayOption {
	return func(gw *Gateway) {
		gw.PathPrefix = prefix
	}
}

// Gateway routes incoming HTTP requests to service operations. It binds transport data onto your
// request struct and replies with your response struct (or error) as JSON.
type Gateway struct {
	Name        string
	Router      *httptreemux.TreeMux
	routerGroup *httptreemux.ContextGroup
	Binder      Binder
	PathPrefix  string
	logger      zerolog.Logger
	middleware  middlewarePipeline
	endpoints   map[route]Endpoint
}

// Register exposes the operation through the gateway.
func (gw *Gateway) Register(endpoint Endpoint) {
	// Routing uses the full path (prefix included) while the Endpoint keeps the path the service
	// declared, so EndpointFromContext() never shows the prefix.
	path := toEndpointPath(gw.PathPrefix, endpoint.Path)
	method := strings.ToUpper(endpoint.Method)

	// Each path also gets an OPTIONS route that replies 405. Middleware only runs for routes
	// the mux knows about, so without it CORS middleware would never see a preflight request.
	gw.endpoints[route{method: method, path: path}] = endpoint
	gw.endpoints[route{method: http.MethodOptions, path: path}] = endpoint
	gw.routerGroup.Handle(method, path, gw.middleware.Then(endpoint.Handler))
	gw.registerOptions(path)
}

func (gw Gateway) registerOptions(path string) {
	// Two endpoints on the same path with different methods (or equivalent wildcard paths) mean
	// we try to add OPTIONS twice and httptreemux panics. The first registration is the one we
	// want, so the panic is swallowed.
	defer func() {
		_ = recover()
	}()
	gw.routerGroup.OPTIONS(path, gw.middleware.Then(methodNotAllowed))
}

// Endpoints lists the registered operations (OPTIONS routes excluded) sorted by route.
func (gw Gateway) Endpoints() []Endpoint {
	var keys []route
	for r := range gw.endpoints {
		if r.method == http.MethodOptions {
			continue
		}
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].path == keys[j].path {
			return keys[i].method < keys[j].method
		}
		return keys[i].path < keys[j].path
	})

	endpoints := make([]Endpoint, len(keys))
	for i, r := range keys {
		endpoints[i] = gw.endpoints[r]
	}
	return endpoints
}

// ServeHTTP is the entry point for all routing, middleware and service handling.
func (gw Gateway) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := context.WithValue(req.Context(), contextKeyGateway{}, &gw)
	gw.Router.ServeHTTP(w, req.WithContext(ctx))
}

// Endpoint describes an operation that we expose through an RPC gateway.
type Endpoint struct {
	// Method is the HTTP method used to invoke this operation (e.g. "POST").
	Method string
	// Path is the HTTP path pattern for the operation, without any gateway prefix.
	Path string
	// ServiceName is the name of the service that this operation is part of.
	ServiceName string
	// Name is the name of the function/operation that this endpoint describes.
	Name string
	// Handler does the actual work.
	Handler http.HandlerFunc
}

// String returns the fully qualified "Service.Operation" descriptor for the operation.
func (e Endpoint) String() string {
	return e.ServiceName + "." + e.Name
}

type contextKeyGateway struct{}
type contextKeyEndpoint struct{}

// EndpointFromContext fetches the details of the operation currently being invoked. It
// returns nil outside of a gateway request.
func EndpointFromContext(ctx context.Context) *Endpoint {
	if ctx == nil {
		return nil
	}
	endpoint, ok := ctx.Value(contextKeyEndpoint{}).(Endpoint)
	if !ok {
		return nil
	}
	return &endpoint
}

// recoverFromPanic turns a panicking handler into a 500 reply.
func (gw Gateway) recoverFromPanic(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			gw.logger.Error().
				Interface("panic", err).
				Str("path", req.URL.Path).
				Msg("recovered from panic in rpc handler")
			respond.To(w, req).InternalServerError("%v", err)
		}
	}()
	next(w, req)
}

// restoreEndpoint puts the matched Endpoint onto the request context.
func restoreEndpoint(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	gw, ok := req.Context().Value(contextKeyGateway{}).(*Gateway)
	if !ok {
		respond.To(w, req).InternalServerError("invalid rpc gateway context")
		return
	}

	routePath := httptreemux.ContextData(req.Context()).Route()

	// 500, not 404: the router matched the route, so a missing endpoint means the gateway
	// itself is in a bad state.
	endpoint, ok := gw.endpoints[route{method: req.Method, path: routePath}]
	if !ok {
		respond.To(w, req).InternalServerError("no endpoint for route '%s %s'", req.Method, routePath)
		return
	}

	ctx := context.WithValue(req.Context(), contextKeyEndpoint{}, endpoint)
	next(w, req.WithContext(ctx))
}

// restoreMetadata decodes the caller's X-RPC-Values header onto the context so the values follow
// the request into your handler (and any RPC calls it makes).
func restoreMetadata(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	values, err := metadata.Decode(req.Header.Get(metadata.RequestHeader))
	if err != nil {
		respond.To(w, req).BadRequest("rpc metadata error: %v", err)
		return
	}
	next(w, req.WithContext(metadata.WithValues(req.Context(), values)))
}

// toEndpointPath joins an optional prefix ("v2") and an endpoint path ("/Foo.Bar").
func toEndpointPath(prefix string, path string) string {
	prefix = strings.Trim(prefix, "/")
	path = strings.Trim(path, "/")

	switch prefix {
	case "":
		return "/" + path
	default:
		return "/" + prefix + "/" + path
	}
}

func methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	respond.To(w, req).MethodNotAllowed("")
}

type route struct {
	method string
	path   string
}
