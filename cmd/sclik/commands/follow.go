package commands

import (
	"context"

	"github.com/sclik/sclik/internal/printer"
	"github.com/spf13/cobra"
)

var followCmd = &cobra.Command{
	Use:   "follow <ipns-key>",
	Short: "Follow a user by IPNS key",
	Long: `Follow a user by their IPNS key.

The key is resolved to the user's current profile, and their display
name is read from the profile itself — you follow a key, the name is
whatever the profile claims. Following a key whose profile declares an
already-followed name replaces that follow.`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

func init() {
	rootCmd.AddCommand(followCmd)
}

func runFollow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	// Ensure an identity exists before following anyone
	if _, err := e.username(); err != nil {
		return err
	}

	username, err := e.service.Follow(ctx, args[0])
	if err != nil {
		return err
	}
	printer.Success("Following %s with IPNS key %s\n", username, args[0])
	return nil
}
