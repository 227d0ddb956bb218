package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	carcassonnecmd "github.com/louisbranch/carcassonne/internal/cmd/carcassonne"
)

func main() {
	flag.CommandLine.Usage = func() {
		log.Print("usage: carcassonne [flags] <command> [args]; run with a command for details")
		flag.PrintDefaults()
	}
	cfg, err := carcassonnecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[CARCASSONNE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := carcassonnecmd.Run(ctx, cfg, os.Stdout); err != nil {
		stop()
		log.Print(carcassonnecmd.Describe(err))
		os.Exit(carcassonnecmd.ExitCode(err))
	}
}
