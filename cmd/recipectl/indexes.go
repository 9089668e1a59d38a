package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/internal/sessions"
	"github.com/forkful/forkful/backend/pkg/logger"
)

func indexesCmd() *cli.Command {
	return &cli.Command{
		Name:  "indexes",
		Usage: "Create the users, recipes and sessions indexes",
		Description: `Creates the unique username and email indexes on users, the author,
tags, createdAt and likes indexes on recipes, and the token and TTL indexes
on sessions. Existing indexes are left untouched.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, db, err := connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			if err := database.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			if err := sessions.NewMongoRepository(db.Collection("sessions")).EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("create session indexes: %w", err)
			}
			for col, models := range database.IndexModels() {
				logger.Infof("ensured %d indexes on %s", len(models), col)
			}
			return nil
		},
	}
}
