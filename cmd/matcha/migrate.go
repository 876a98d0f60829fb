package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/matcha/internal/config"
	"github.com/redmonkez12/matcha/internal/database"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/store/postgres"
	"github.com/redmonkez12/matcha/internal/token"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := initDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	switch direction {
	case "up":
		return database.MigrateUp(ctx, sqlDB)
	case "down":
		return database.MigrateDown(ctx, sqlDB)
	default:
		return database.MigrateStatus(ctx, sqlDB)
	}
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := initDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	db := database.NewBunDB(sqlDB)
	defer db.Close()

	n, err := token.NewService(nil).Prune(ctx, postgres.New(db).Tokens())
	if err != nil {
		return fmt.Errorf("failed to prune tokens: %w", err)
	}

	logger.Info("pruned expired tokens", "count", n)
	return nil
}
