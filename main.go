package main

import (
	"fmt"
	"os"

	"github.com/monadicstack/welcome/cli"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "welcome",
		Short:         "Runs and calls the WelcomeService, a tiny greeting RPC service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		cli.Serve{}.Command(),
		cli.Hello{}.Command(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[welcome] error: %v\n", err)
		os.Exit(1)
	}
}
