package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/monadicstack/welcome/rpc"
	"github.com/monadicstack/welcome/rpc/metadata"
	"github.com/monadicstack/welcome/rpc/unary"
	"github.com/monadicstack/welcome/welcome"
	welcomerpc "github.com/monadicstack/welcome/welcome/gen"
	"github.com/spf13/cobra"
)

// HelloRequest contains the inputs from our "welcome hello" CLI command.
type HelloRequest struct {
	// Name is the person to greet (the only positional argument).
	Name string
	// Addr is the value of the --addr option; the base URL of a running service.
	Addr string
	// Transport is the value of the --transport option: http, connect, grpc or grpcweb.
	Transport string
	// Timeout is the value of the --timeout option.
	Timeout time.Duration
	// TraceID is the value of the --trace-id option. It's sent as rpc metadata so the server logs it.
	TraceID string
}

// Hello calls Hello on a remote WelcomeService and prints the greeting.
type Hello struct {
	// Out receives the greeting. Defaults to stdout.
	Out io.Writer
}

// Command creates the Cobra struct describing this CLI command and its options.
func (c Hello) Command() *cobra.Command {
	request := &HelloRequest{}
	cmd := &cobra.Command{
		Use:   "hello [flags] NAME",
		Short: "Asks a running WelcomeService to greet NAME and prints the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request.Name = args[0]
			return c.Exec(cmd.Context(), request)
		},
	}
	cmd.Flags().StringVar(&request.Addr, "addr", "http://localhost:9090", "Base URL of the WelcomeService")
	cmd.Flags().StringVar(&request.Transport, "transport", "http", "How to reach the service: http, connect, grpc or grpcweb")
	cmd.Flags().DurationVar(&request.Timeout, "timeout", 10*time.Second, "How long to wait for the greeting")
	cmd.Flags().StringVar(&request.TraceID, "trace-id", "", "Optional trace id to attach to the call")
	return cmd
}

// Exec builds the client for the requested transport and prints the greeting on success.
func (c Hello) Exec(ctx context.Context, request *HelloRequest) error {
	client, err := c.client(request)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if request.TraceID != "" {
		ctx = metadata.WithValue(ctx, metadata.KeyTraceID, request.TraceID)
	}
	if request.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, request.Timeout)
		defer cancel()
	}

	response, err := client.Hello(ctx, &welcome.HelloRequest{Name: request.Name})
	if err != nil {
		return err
	}

	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, response.Greet)
	return err
}

func (c Hello) client(request *HelloRequest) (welcome.WelcomeService, error) {
	addr := strings.TrimSpace(request.Addr)
	if addr == "" {
		return nil, fmt.Errorf("hello: --addr is required")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	transport := strings.ToLower(strings.TrimSpace(request.Transport))
	if transport == "" || transport == "http" {
		return welcomerpc.NewWelcomeServiceClient(addr, rpc.WithClientMiddleware(userAgent)), nil
	}

	protocol, err := unary.ParseProtocol(transport)
	if err != nil {
		return nil, fmt.Errorf("hello: %w", err)
	}
	return welcomerpc.NewWelcomeServiceConnectClient(addr, unary.WithProtocol(protocol)), nil
}

func userAgent(request *http.Request, next rpc.RoundTripperFunc) (*http.Response, error) {
	request.Header.Set("User-Agent", "welcome-cli")
	return next(request)
}
