package welcome

import (
	"context"
)

// WelcomeService greets people. It is the whole public contract of the service: the handler
// implements it and so do the generated RPC clients, so callers can swap a local instance for
// a remote one without changing any code.
type WelcomeService interface {
	// Hello produces a greeting for the person named in the request.
	Hello(ctx context.Context, req *HelloRequest) (*HelloResponse, error)
}

// HelloRequest names the person to greet.
type HelloRequest struct {
	// Name is who we're greeting (e.g. "Ada").
	Name string `json:"name"`
}

// HelloResponse carries the greeting produced for a HelloRequest.
type HelloResponse struct {
	// Greet is the full greeting text (e.g. "Hello, Ada!").
	Greet string `json:"greet"`
}
