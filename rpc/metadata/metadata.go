// Package metadata carries request-scoped values across RPC hops. Plain context values stay in the
// process that set them; metadata values ride along in the X-RPC-Values header when a client
// calls another service, so they're a good fit for things like trace ids.
//
//	ctx = metadata.WithValue(ctx, metadata.KeyTraceID, "abc123")
//	...
//	traceID, ok := metadata.Value[string](ctx, metadata.KeyTraceID)
//
// Values are JSON-encoded as soon as they're stored, so the receiving side only needs to know the
// type it wants back.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
)

// RequestHeader is the header that carries the encoded values from caller to callee.
const RequestHeader = "X-RPC-Values"

// KeyTraceID is the metadata key the request loggers look for.
const KeyTraceID = "trace_id"

type contextKey struct{}

// Values maps keys to their JSON-encoded value.
type Values map[string]json.RawMessage

// WithValue returns a copy of the context whose metadata includes key=value. The parent
// context's metadata is never modified. Values that can't be encoded as JSON are dropped.
func WithValue(ctx context.Context, key string, value interface{}) context.Context {
	if ctx == nil || key == "" {
		return ctx
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ctx
	}

	values := FromContext(ctx)
	values[key] = encoded
	return WithValues(ctx, values)
}

// WithValues replaces all of the metadata on the context. The gateway and Connect handlers use
// this to restore the values decoded from the request header.
func WithValues(ctx context.Context, values Values) context.Context {
	return context.WithValue(ctx, contextKey{}, values)
}

// FromContext returns a copy of the context's metadata; never nil.
func FromContext(ctx context.Context) Values {
	values := Values{}
	if ctx == nil {
		return values
	}
	current, _ := ctx.Value(contextKey{}).(Values)
	for k, v := range current {
		values[k] = v
	}
	return values
}

// Value decodes the metadata value for 'key' as a T. The boolean is false when the key is
// missing or its value doesn't decode into a T.
func Value[T any](ctx context.Context, key string) (T, bool) {
	var out T
	if ctx == nil || key == "" {
		return out, false
	}
	values, _ := ctx.Value(contextKey{}).(Values)
	raw, ok := values[key]
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// TraceID is shorthand for Value[string](ctx, KeyTraceID).
func TraceID(ctx context.Context) string {
	traceID, _ := Value[string](ctx, KeyTraceID)
	return traceID
}

// Encode turns the context's metadata into an X-RPC-Values header value. It's empty when there
// is nothing to send.
func Encode(ctx context.Context) (string, error) {
	values := FromContext(ctx)
	if len(values) == 0 {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("metadata: encode: %w", err)
	}
	return string(data), nil
}

// Decode parses an X-RPC-Values header value. A blank header decodes to empty Values.
func Decode(header string) (Values, error) {
	values := Values{}
	if header == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(header), &values); err != nil {
		return nil, fmt.Errorf("metadata: decode: %w", err)
	}
	return values, nil
}
