package rpc

import (
	"net/http"
	"time"

	"github.com/monadicstack/welcome/rpc/metadata"
	"github.com/rs/zerolog"
	"github.com/urfave/negroni"
)

// WithMiddleware appends this chain of work to the gateway. It runs after the gateway's own
// book-keeping (panic recovery, endpoint restoration) and before your service handler.
func WithMiddleware(mw ...Middleware) GatewayOption {
	return func(gw *Gateway) {
		gw.middleware = append(gw.middleware, mw...)
	}
}

// WithMiddlewareFunc is WithMiddleware for plain functions.
func WithMiddlewareFunc(funcs ...MiddlewareFunc) GatewayOption {
	mw := make([]Middleware, len(funcs))
	for i, fn := range funcs {
		mw[i] = fn
	}
	return WithMiddleware(mw...)
}

// WithLogger writes one structured log line per request handled by the gateway.
func WithLogger(logger zerolog.Logger) GatewayOption {
	return func(gw *Gateway) {
		gw.logger = logger
		gw.middleware = append(gw.middleware, requestLogger{logger: logger})
	}
}

// Middleware is any negroni handler, so anything in the negroni ecosystem (CORS, gzip, etc.)
// plugs straight into a gateway.
type Middleware = negroni.Handler

// MiddlewareFunc is the function form of a negroni handler.
type MiddlewareFunc = negroni.HandlerFunc

// middlewarePipeline is a chain of middleware handlers that fire in succession before ultimately
// executing the handler that does the real work for the endpoint.
type middlewarePipeline []Middleware

// Then wraps every middleware around 'handler' and returns the combined handler.
func (pipeline middlewarePipeline) Then(handler http.HandlerFunc) http.HandlerFunc {
	for i := len(pipeline) - 1; i >= 0; i-- {
		mw := pipeline[i]
		next := handler
		handler = func(w http.ResponseWriter, req *http.Request) {
			mw.ServeHTTP(w, req, next)
		}
	}
	return handler
}

type requestLogger struct {
	logger zerolog.Logger
}

func (l requestLogger) ServeHTTP(w http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	start := time.Now()
	rw := negroni.NewResponseWriter(w)
	next(rw, req)

	status := rw.Status()
	if status == 0 {
		status = http.StatusOK
	}

	event := l.logger.Info()
	if status >= http.StatusInternalServerError {
		event = l.logger.Error()
	} else if status >= http.StatusBadRequest {
		event = l.logger.Warn()
	}
	if endpoint := EndpointFromContext(req.Context()); endpoint != nil {
		event = event.Str("endpoint", endpoint.String())
	}
	if traceID := metadata.TraceID(req.Context()); traceID != "" {
		event = event.Str("trace_id", traceID)
	}
	event.
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("rpc request")
}
