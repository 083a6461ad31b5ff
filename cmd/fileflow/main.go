// FileFlow command-line client.
//
// Browses and manages a FileFlow drive from the terminal:
//
//	fileflow ls [folder]          List a folder (root by default)
//	fileflow cd-path <index>      Jump to a breadcrumb of the last listing
//	fileflow mkdir <name>         Create a folder
//	fileflow upload <files...>    Upload files concurrently
//	fileflow download <id> <dst>  Download a file
//	fileflow login / logout       Manage the saved token
//
// Configuration comes from FILEFLOW_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdin, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorText(err))
		os.Exit(1)
	}
}
