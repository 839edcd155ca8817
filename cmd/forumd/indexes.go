package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	mongodb "github.com/sirpyerre/discussion-api/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/discussion-api/pkg/logger"
)

func newIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := setup(ctx)
			if err != nil {
				return err
			}
			log := logger.Get()

			client, db, err := mongodb.Connect(ctx, mongodb.Config{
				URI:      cfg.Mongo.URI,
				Database: cfg.Mongo.Database,
				Timeout:  10 * time.Second,
			})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }()

			if err := mongodb.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
			return nil
		},
	}
}
