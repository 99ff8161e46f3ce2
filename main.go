package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"golang.design/x/hotkey/mainthread"

	"github.com/yiblet/clipper/internal/cli"
)

func main() {
	// Global hotkeys need the main thread's event loop on macOS.
	code := 0
	mainthread.Init(func() { code = run() })
	os.Exit(code)
}

func run() int {
	// Parse command-line arguments
	var args cli.Args
	parser := arg.MustParse(&args)
	if err := args.Validate(); err != nil {
		parser.Fail(err.Error())
	}

	// No subcommand means 'clipper run'
	if !args.HasCommand() {
		args.Run = &cli.RunCmd{}
	}

	cliHandler, err := cli.New(&args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cliHandler.Execute(ctx, &args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
