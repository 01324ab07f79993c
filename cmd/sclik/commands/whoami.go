package commands

import (
	"context"

	"github.com/sclik/sclik/internal/printer"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show your username and shareable IPNS key",
	Long: `Show your username and the IPNS key others need to follow you.

The key exists once you have posted at least once (posting creates
your profile and its IPNS key).`,
	Args: cobra.NoArgs,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	username, err := e.username()
	if err != nil {
		return err
	}
	printer.Printf("Username: %s\n", username)

	keyID, err := e.client.KeyID(ctx, username)
	if err != nil {
		return err
	}
	if keyID == "" {
		printer.Info("No IPNS key yet - it is created on your first post.\n")
		return nil
	}
	printer.Printf("IPNS key: %s\n", keyID)
	printer.Info("Share this key so others can run: sclik follow %s\n", keyID)
	return nil
}
