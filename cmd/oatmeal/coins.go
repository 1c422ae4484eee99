package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oatmeal/resume-builder/internal/config"
	"github.com/oatmeal/resume-builder/internal/db"
	"github.com/oatmeal/resume-builder/internal/quota"
)

var (
	coinsUserID string
	coinsAmount int
)

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Inspect and adjust user coin balances",
	Long:  `Admin commands that operate directly on the coin store, bypassing the HTTP API.`,
}

var coinsBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show a user's coin balance",
	RunE:  runCoinsBalance,
}

var coinsCreditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Grant extra coins to a user",
	Long:  `Adds coins to a user's balance. The balance may exceed the daily allotment; the next reset clamps it back down.`,
	RunE:  runCoinsCredit,
}

func init() {
	coinsBalanceCmd.Flags().StringVar(&coinsUserID, "user", "", "User ID (required)")
	_ = coinsBalanceCmd.MarkFlagRequired("user")

	coinsCreditCmd.Flags().StringVar(&coinsUserID, "user", "", "User ID (required)")
	coinsCreditCmd.Flags().IntVar(&coinsAmount, "amount", 1, "Coins to add")
	_ = coinsCreditCmd.MarkFlagRequired("user")

	coinsCmd.AddCommand(coinsBalanceCmd)
	coinsCmd.AddCommand(coinsCreditCmd)
	rootCmd.AddCommand(coinsCmd)
}

// coinService connects to the database and builds the same coin service the
// server uses, from the same environment variables.
func coinService(ctx context.Context) (*quota.Service, *db.DB, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	coins, err := config.NewCoinsConfig()
	if err != nil {
		return nil, nil, err
	}

	var policy quota.ResetPolicy
	switch coins.ResetPolicy {
	case "calendar":
		loc, err := time.LoadLocation(coins.Timezone)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid reset timezone: %w", err)
		}
		policy = quota.CalendarDay{Location: loc}
	default:
		policy = quota.RollingWindow{Period: coins.ResetPeriod}
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	svc, err := quota.NewService(database, quota.DefaultCosts(), coins.DailyAllotment, quota.WithPolicy(policy))
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return svc, database, nil
}

func runCoinsBalance(_ *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(coinsUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	ctx := context.Background()
	svc, database, err := coinService(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	record, err := svc.Balance(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("failed to read balance: %w", err)
	}

	fmt.Printf("User:     %s\n", userID)
	fmt.Printf("Coins:    %d / %d\n", record.Balance, svc.Allotment())
	fmt.Printf("Resets:   %s\n", record.ResetAt.Format(time.RFC3339))
	return nil
}

func runCoinsCredit(_ *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(coinsUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	if coinsAmount < 1 {
		return fmt.Errorf("amount must be at least 1, got %d", coinsAmount)
	}

	ctx := context.Background()
	svc, database, err := coinService(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	record, err := svc.Credit(ctx, userID.String(), coinsAmount)
	if err != nil {
		return fmt.Errorf("failed to credit coins: %w", err)
	}

	fmt.Printf("Credited %d coin(s) to %s, new balance %d (resets %s)\n",
		coinsAmount, userID, record.Balance, record.ResetAt.Format(time.RFC3339))
	return nil
}
