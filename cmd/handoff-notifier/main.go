package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/handofflabs/handoff/pkg/badges"
	"github.com/handofflabs/handoff/pkg/cmd"
	"github.com/handofflabs/handoff/pkg/log"
	"github.com/handofflabs/handoff/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

func main() {
	logger := log.WithModule("notifier")

	command := &cli.Command{
		Name:                  "handoff-notifier",
		Usage:                 "Consume delivery events and maintain notification badge counters",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider for delivery notifications (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:     "redis-url",
				Usage:    "Redis connection URL for badge counters",
				Required: true,
				Sources:  cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Handoff notifier")

			store, err := badges.NewStore(command.String("redis-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close badge store", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			tracer, err := otelhelper.NewTracer(ctx, "handoff-notifier")
			if err != nil {
				return err
			}

			notifier := NewNotifier(eventBus, store, tracer, logger)

			err = notifier.Start(ctx)
			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "Handoff notifier started")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Handoff notifier stopping")

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
