// Command recipectl runs maintenance tasks against the recipe database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/pkg/logger"
)

const name = "recipectl"

var (
	mongoURIFlag = &cli.StringFlag{
		Name:    "mongodb-uri",
		Usage:   "MongoDB connection string",
		Sources: cli.EnvVars("MONGODB_URI"),
	}
	databaseFlag = &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "forkful",
		Usage:   "database name",
		Sources: cli.EnvVars("MONGODB_DATABASE"),
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Value: 10 * time.Second,
		Usage: "connection timeout",
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		Usage:   "debug, info, warn or error",
		Sources: cli.EnvVars("LOG_LEVEL"),
	}
)

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:                  name,
		EnableShellCompletion: true,
		Usage:                 "Maintenance tasks for the recipe database",
		Flags:                 []cli.Flag{mongoURIFlag, databaseFlag, timeoutFlag, logLevelFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger.Init(cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			indexesCmd(),
			seedCmd(),
		},
	}
}

// connect opens the database named by the root flags. The caller disconnects
// the returned client.
func connect(ctx context.Context, cmd *cli.Command) (*mongo.Client, *mongo.Database, error) {
	uri := cmd.String("mongodb-uri")
	if uri == "" {
		return nil, nil, fmt.Errorf("--mongodb-uri or MONGODB_URI is required")
	}
	client, err := database.ConnectMongo(ctx, uri, cmd.Duration("timeout"))
	if err != nil {
		return nil, nil, err
	}
	return client, client.Database(cmd.String("database")), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
