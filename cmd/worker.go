package cmd

import (
	"context"
	"errors"

	"github.com/pothyeswaran/blogserver/config"
	"github.com/pothyeswaran/blogserver/internal/logger"
	"github.com/pothyeswaran/blogserver/internal/mq"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes post events from the configured broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logger.New()

		backend, err := mq.NewBackend(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		if backend == nil {
			return errors.New("MQ_BACKEND must be configured for the worker")
		}

		events := mq.NewPostEvents(backend, cfg.MQ.Channel, log)
		defer func() {
			_ = events.Close()
		}()

		log.Info("worker started", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
		return events.Consume(cmd.Context(), func(ctx context.Context, event mq.PostEvent) error {
			log.Info("post event",
				"type", event.Type,
				"post_id", event.PostID,
				"author_id", event.AuthorID,
				"title", event.Title,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
