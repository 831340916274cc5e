package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	dev      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ctxrun",
		Short: "ctxrun - require CommonJS modules into a sandbox",
		Long: `ctxrun loads a CommonJS module and everything it requires into an
isolated JavaScript context, then prints the module's exports as JSON.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "Development logging")

	cmd.AddCommand(newRunCmd(opts))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
