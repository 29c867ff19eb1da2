// Command rolemesh answers restaurant requests with a director/executor
// society backed by MCP tools.
//
//	rolemesh run "late-night ramen near Shinjuku"
//	rolemesh batch --input queries.txt --output results.yaml
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
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		stop()
		os.Exit(1)
	}
}
