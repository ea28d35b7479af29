package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Interrupted delivers termination signals until ctx is done.
func Interrupted(ctx context.Context) <-chan os.Signal {
	interrupt := make(chan os.Signal, 2)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-ctx.Done()
		signal.Stop(interrupt)
	}()
	return interrupt
}
