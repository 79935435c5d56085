package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/attendboard/internal/boardctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := boardctl.NewRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("boardctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
