package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sclik/sclik/internal/printer"
	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post <message parts or files...>",
	Short: "Publish a post",
	Long: `Publish a post to your profile.

Each argument is either a message part or a path to an existing file.
File contents are embedded in the post as a ">>> /path" block, so code
and logs can be shared inline:

  sclik post "found the bug" crash.log

The post is always stored locally; publishing to IPFS is best-effort
and a network failure never loses the post.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPost,
}

func init() {
	rootCmd.AddCommand(postCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	content, err := buildContent(args)
	if err != nil {
		return err
	}

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

	if err := e.service.Post(ctx, username, content); err != nil {
		return err
	}
	printer.Success("Posted as @%s\n", username)
	return nil
}

// buildContent assembles the post body from message parts and files.
// File arguments are embedded as ">>> /abs/path" blocks; unreadable
// files are skipped with a warning.
func buildContent(args []string) (string, error) {
	var parts []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || info.IsDir() {
			parts = append(parts, arg)
			continue
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			printer.Warning("Error reading file %s: %v\n", arg, err)
			continue
		}
		absPath, err := filepath.Abs(arg)
		if err != nil {
			absPath = arg
		}
		parts = append(parts, fmt.Sprintf(">>> %s\n%s", absPath, strings.TrimSpace(string(data))))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no valid content provided for post")
	}
	return strings.Join(parts, "\n\n"), nil
}
