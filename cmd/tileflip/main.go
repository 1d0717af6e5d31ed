// Package main provides the tileflip CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
)

const version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 0
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "tileflip %s\n", version)
	case "run":
		err = runCmd(ctx, args[1:], stdout, stderr)
	case "flip":
		err = flipCmd(ctx, args[1:], stdout, stderr)
	case "info":
		err = infoCmd(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "tileflip - tiled axis-flip engine")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  run        Flip a random array on the worker grid and compare with the reference")
	fmt.Fprintln(w, "  flip       Flip a .tflp file into a new .tflp file")
	fmt.Fprintln(w, "  info       Show the header of a .tflp file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tileflip <command> -h' for command flags.")
}
