package commands

import (
	"context"

	"github.com/sclik/sclik/internal/printer"
	"github.com/spf13/cobra"
)

var followingCmd = &cobra.Command{
	Use:   "following",
	Short: "List followed users",
	Long:  `List every followed user and the IPNS key their posts are fetched from.`,
	Args:  cobra.NoArgs,
	RunE:  runFollowing,
}

func init() {
	rootCmd.AddCommand(followingCmd)
}

func runFollowing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	follows, err := e.db.Follows(ctx)
	if err != nil {
		return err
	}
	if len(follows) == 0 {
		printer.Info("You are not following anyone yet. Use 'sclik follow <ipns-key>'.\n")
		return nil
	}
	for _, f := range follows {
		printer.Printf("%-24s %s\n", f.Username, f.Pointer)
	}
	return nil
}
