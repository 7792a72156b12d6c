package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/brecher/internal/cli"
	"github.com/okian/brecher/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Admin output goes to stdout; logs stay on stderr.
	if err := logger.InitWithFormat("text", os.Stderr); err != nil {
		os.Stderr.WriteString("brecherctl: " + err.Error() + "\n")
		os.Exit(1)
	}
	_ = logger.SetLevelString("warn")

	if err := cli.NewRootCommand(cli.ConfigOpener).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("brecherctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
