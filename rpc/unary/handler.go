package unary

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/monadicstack/welcome/rpc/metadata"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Func is the Go-native shape of a unary operation: the same signature as a service method.
type Func[Req, Res any] func(ctx context.Context, request *Req) (*Res, error)

// NewHandler exposes 'fn' as the Connect procedure 'procedure' (e.g. "/welcome.v1.WelcomeService/Hello").
// The handler accepts Connect, gRPC and gRPC-Web requests that use the JSON codec. Errors are
// translated to Connect codes based on their HTTP status (see CodeFromStatus).
func NewHandler[Req, Res any](procedure string, fn Func[Req, Res], options ...connect.HandlerOption) http.Handler {
	defaults := []connect.HandlerOption{
		connect.WithCodec(Codec{}),
		connect.WithInterceptors(MetadataInterceptor()),
		connect.WithRecover(recoverFromPanic),
	}
	options = append(defaults, options...)
	return connect.NewUnaryHandler(procedure, func(ctx context.Context, request *connect.Request[Req]) (*connect.Response[Res], error) {
		response, err := fn(ctx, request.Msg)
		if err != nil {
			return nil, ToConnectError(err)
		}
		if response == nil {
			response = new(Res)
		}
		return connect.NewResponse(response), nil
	}, options...)
}

// recoverFromPanic turns a panicking handler into a CodeInternal error (HTTP 500), the same
// way the JSON gateway replies 500. The panic is logged through the global zerolog logger.
func recoverFromPanic(_ context.Context, spec connect.Spec, _ http.Header, p any) error {
	log.Error().
		Interface("panic", p).
		Str("procedure", spec.Procedure).
		Msg("recovered from panic in connect handler")
	return connect.NewError(connect.CodeInternal, fmt.Errorf("%v", p))
}

// MetadataInterceptor carries rpc/metadata values across the call. Clients encode the context's
// values into the X-RPC-Values header; handlers decode that header back onto the context.
func MetadataInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, request connect.AnyRequest) (connect.AnyResponse, error) {
			if request.Spec().IsClient {
				encoded, err := metadata.Encode(ctx)
				if err != nil {
					return nil, connect.NewError(connect.CodeInternal, err)
				}
				if encoded != "" {
					request.Header().Set(metadata.RequestHeader, encoded)
				}
				return next(ctx, request)
			}

			values, err := metadata.Decode(request.Header().Get(metadata.RequestHeader))
			if err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}
			return next(metadata.WithValues(ctx, values), request)
		}
	}
}

// LoggingInterceptor writes one structured log line per unary call, on both the client and
// the handler side.
func LoggingInterceptor(logger zerolog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, request connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			response, err := next(ctx, request)

			event := logger.Info()
			code := "ok"
			if err != nil {
				c := connect.CodeOf(err)
				code = c.String()
				if StatusFromCode(c) >= http.StatusInternalServerError {
					event = logger.Error().Err(err)
				} else {
					event = logger.Warn().Err(err)
				}
			}
			if traceID := metadata.TraceID(ctx); traceID != "" {
				event = event.Str("trace_id", traceID)
			}
			event.
				Str("procedure", request.Spec().Procedure).
				Str("protocol", request.Peer().Protocol).
				Bool("client", request.Spec().IsClient).
				Str("code", code).
				Dur("duration", time.Since(start)).
				Msg("connect request")
			return response, err
		}
	}
}
