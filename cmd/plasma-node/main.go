package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"plasma.dev/node/cmd/plasma-node/commands"
	"plasma.dev/node/log"
	"plasma.dev/node/node"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		conf   node.Config
		logger = log.NewNopLogger()
	)
	rootCmd := commands.RootCommand(&conf, &logger)
	rootCmd.AddCommand(
		commands.NewStartCmd(&conf, &logger),
		commands.NewKeygenCmd(&conf),
		commands.NewShowConfigCmd(&conf),
		commands.NewProofCmd(&conf),
		commands.NewUTXOsCmd(&conf),
		commands.NewWithdrawalsCmd(&conf),
	)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
