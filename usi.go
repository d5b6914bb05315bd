package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"shogi-engine/agent"
	"shogi-engine/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run speaks USI over in and out until quit or end of input.
func run(ctx context.Context, args []string, in io.Reader, out, stderr io.Writer) error {
	fs := flag.NewFlagSet("shogi-engine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logPath := fs.String("log", "", "Write the log to this file instead of stderr")
	name := fs.String("name", "", "Engine name announced in reply to usi")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logOut := stderr
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrap(err, "open log")
		}
		defer f.Close()
		logOut = f
	}
	logger := log.New(logOut, "", log.LstdFlags|log.Lshortfile)

	host := engine.NewHost(agent.NewRandom(*name, logger), in, out, logger)
	return host.Run(ctx)
}
