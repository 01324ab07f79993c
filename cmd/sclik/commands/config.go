package commands

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/sclik/sclik/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the configuration file",
	Long: `Open the sclik configuration file in your editor ($EDITOR, falling
back to vim). The file holds your username and the CID of your last
published profile snapshot.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths, err := config.DefaultPaths()
	if err != nil {
		return err
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	edit := exec.Command(editor, paths.ConfigFile)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open %s in %s: %w (edit the file manually if no editor is available)",
			paths.ConfigFile, editor, err)
	}
	return nil
}
