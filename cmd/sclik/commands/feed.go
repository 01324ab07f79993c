package commands

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sclik/sclik/internal/printer"
	"github.com/spf13/cobra"
)

var feedLimit int

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "View your feed",
	Long: `View your feed: your own posts merged with every followed user's
posts, ordered by time.

Followed users' posts are fetched fresh from IPFS on every view. A
peer that cannot be resolved is skipped with a warning — the rest of
the feed still renders.`,
	Args: cobra.NoArgs,
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().IntVar(&feedLimit, "limit", 10, "Number of feed items to show")
	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	if feedLimit < 0 {
		return printer.Error("Invalid --limit value",
			fmt.Sprintf("--limit must be zero or positive (got %d).", feedLimit),
			[]string{"Use --limit 0 to show the entire feed"})
	}

	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.username(); err != nil {
		return err
	}

	entries, err := e.service.Feed(ctx, feedLimit)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		sec, frac := math.Modf(entry.Timestamp)
		printer.Post(entry.User, time.Unix(int64(sec), int64(frac*1e9)), entry.Content)
	}
	return nil
}
