package rpc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/monadicstack/welcome/rpc/errors"
)

// Binder takes every meaningful value from an incoming request (body, query string, path
// params) and applies it to your service request struct (e.g. welcome.HelloRequest).
type Binder interface {
	Bind(req *http.Request, out interface{}) error
}

// WithBinder overrides the gateway's default JSON binding.
func WithBinder(binder Binder) GatewayOption {
	return func(gw *Gateway) {
		gw.Binder = binder
	}
}

// jsonBinder is the default binder. Body first, then query string, then path params, so
// a path param always wins over the same field in the body.
type jsonBinder struct{}

func (b jsonBinder) Bind(req *http.Request, out interface{}) error {
	if err := b.bindBody(req, out); err != nil {
		return errors.BadRequest("binding error: body: %v", err)
	}
	if err := b.bindValues(queryValues(req), out); err != nil {
		return errors.BadRequest("binding error: query: %v", err)
	}
	if err := b.bindValues(httptreemux.ContextParams(req.Context()), out); err != nil {
		return errors.BadRequest("binding error: path: %v", err)
	}
	return nil
}

func (b jsonBinder) bindBody(req *http.Request, out interface{}) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(req.Body).Decode(out)
	if err == io.EOF {
		return nil
	}
	return err
}

// bindValues applies string key/value pairs to 'out'. Values that look like JSON literals
// (numbers, booleans, objects) are tried as such first; if that doesn't fit the target
// struct we fall back to treating every value as a plain string.
func (b jsonBinder) bindValues(values map[string]string, out interface{}) error {
	if len(values) == 0 {
		return nil
	}
	if err := json.Unmarshal(valuesToJSON(values, true), out); err == nil {
		return nil
	}
	if err := json.Unmarshal(valuesToJSON(values, false), out); err != nil {
		return fmt.Errorf("unable to apply %d value(s): %w", len(values), err)
	}
	return nil
}

func queryValues(req *http.Request) map[string]string {
	query := req.URL.Query()
	values := make(map[string]string, len(query))
	for key, vals := range query {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	return values
}

func valuesToJSON(values map[string]string, literals bool) []byte {
	obj := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		if literals && looksLikeLiteral(value) {
			obj[key] = json.RawMessage(value)
			continue
		}
		quoted, _ := json.Marshal(value)
		obj[key] = quoted
	}
	data, _ := json.Marshal(obj)
	return data
}

// looksLikeLiteral reports whether a raw value should be sent as-is rather than quoted. "null" is
// always quoted: as a literal it would be a no-op and the value would silently disappear.
func looksLikeLiteral(value string) bool {
	if value == "" || value == "null" {
		return false
	}
	return json.Valid([]byte(value)) && value[0] != '"'
}
