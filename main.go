package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maxkimambo/cgaprov/cmd"
	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\nInterrupted: running catalog commands were allowed to finish, nothing further was started")
		} else {
			fmt.Fprint(os.Stderr, caterrors.FormatForCLI(err))
		}
		stop()
		os.Exit(1)
	}
}
