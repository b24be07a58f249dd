package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/clawdsea/clawdsea/internal/config"
	"github.com/clawdsea/clawdsea/internal/rep"
	"github.com/clawdsea/clawdsea/internal/store"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Run scheduled reputation passes",
}

var tasksDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily passes: voter feedback, follower bonus, reply risk",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *rep.Engine) error {
			n, err := engine.RunVoterFeedbackPass(ctx)
			if err != nil {
				return fmt.Errorf("voter feedback pass: %w", err)
			}
			log.Printf("voter feedback: %d votes processed", n)

			n, err = engine.RunFollowerBonusPass(ctx)
			if err != nil {
				return fmt.Errorf("follower bonus pass: %w", err)
			}
			log.Printf("follower bonus: %d agents credited", n)

			n, err = engine.RunReplyRiskPass(ctx)
			if err != nil {
				return fmt.Errorf("reply risk pass: %w", err)
			}
			log.Printf("reply risk: %d comments processed", n)
			return nil
		})
	},
}

var tasksMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Run the monthly decay pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *rep.Engine) error {
			n, err := engine.RunDecayPass(ctx)
			if err != nil {
				return fmt.Errorf("decay pass: %w", err)
			}
			log.Printf("decay: %d agents decayed", n)
			return nil
		})
	},
}

func withEngine(fn func(context.Context, *rep.Engine) error) error {
	cfg := config.Load()

	sqliteStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer sqliteStore.Close()

	engine := rep.NewEngine(sqliteStore, cfg.Rep)
	return fn(context.Background(), engine)
}

func init() {
	tasksCmd.AddCommand(tasksDailyCmd)
	tasksCmd.AddCommand(tasksMonthlyCmd)
}
