package welcome

import (
	"context"
	"fmt"
	"strings"

	"github.com/monadicstack/welcome/rpc/errors"
)

// DefaultGreeting is the greeting format used when the handler doesn't specify one.
const DefaultGreeting = "Hello, %s!"

// WelcomeServiceHandler is the real implementation of WelcomeService.
type WelcomeServiceHandler struct {
	// Greeting is a fmt format with exactly one %s verb for the name. Blank or invalid (see
	// ValidateGreeting) means DefaultGreeting.
	Greeting string
}

// Hello greets the person named in the request. The name is trimmed; a blank name is a bad request.
func (svc WelcomeServiceHandler) Hello(ctx context.Context, req *HelloRequest) (*HelloResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Timeout("hello: %v", err)
	}
	if req == nil {
		return nil, errors.BadRequest("request is required")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.BadRequest("name is required")
	}
	return &HelloResponse{Greet: fmt.Sprintf(svc.greeting(), name)}, nil
}

func (svc WelcomeServiceHandler) greeting() string {
	if svc.Greeting == "" || ValidateGreeting(svc.Greeting) != nil {
		return DefaultGreeting
	}
	return svc.Greeting
}

// ValidateGreeting checks that a greeting format has exactly one %s verb and no other verbs.
func ValidateGreeting(greeting string) error {
	if greeting == "" {
		return nil
	}
	stripped := strings.ReplaceAll(greeting, "%%", "")
	if strings.Count(stripped, "%") != 1 || strings.Count(stripped, "%s") != 1 {
		return fmt.Errorf("greeting %q must contain exactly one %%s", greeting)
	}
	return nil
}
