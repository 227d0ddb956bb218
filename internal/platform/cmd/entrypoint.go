// Package cmd holds the startup plumbing shared by command entry points:
// environment then flag parsing, and a tracing scope around one command run.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/carcassonne/internal/platform/config"
	"github.com/louisbranch/carcassonne/internal/platform/otel"
)

// ServiceCarcassonne names the carcassonne command in trace resources.
const ServiceCarcassonne = "carcassonne"

// telemetryFlushTimeout bounds the exporter flush after a run returns.
const telemetryFlushTimeout = 5 * time.Second

// ParseConfig fills cfg from the environment, including an optional .env
// file. Flags registered afterwards default to these values.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses flags from args. Positional arguments remain on fs.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs a tracer provider for service, runs fn and
// flushes spans once fn returns, even when ctx was cancelled.
func RunWithTelemetry(ctx context.Context, service string, fn func(context.Context) error) error {
	service = strings.TrimSpace(service)
	switch {
	case service == "":
		return errors.New("service name is required")
	case fn == nil:
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer flushTelemetry(context.WithoutCancel(ctx), service, shutdown)
	return fn(ctx)
}

// flushTelemetry runs shutdown under its own deadline. Flush failures are
// logged; they never replace the command's result.
func flushTelemetry(ctx context.Context, service string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, telemetryFlushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Printf("%s: flush telemetry: %v", service, err)
	}
}
