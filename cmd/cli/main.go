package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/afterlight/internal/buildinfo"
	"github.com/dmitrijs2005/afterlight/internal/client/cli"
	"github.com/dmitrijs2005/afterlight/internal/client/config"
	"github.com/dmitrijs2005/afterlight/internal/logging"
	"golang.org/x/term"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// Ctrl-C or SIGTERM cancels ctx; Run then wipes every vault key.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A signal during a passphrase prompt must not leave echo off.
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if st, err := term.GetState(fd); err == nil {
			defer func() { _ = term.Restore(fd, st) }()
		}
	}

	cfg := config.LoadConfig()

	// Logs go to stderr so they do not interleave with the REPL output.
	logger, err := logging.New(os.Stderr, "text", cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
