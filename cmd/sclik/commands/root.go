package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

const banner = `       _____ ________    ______ __
      / ___// ____/ /   /  _/ //_/
      \__ \/ /   / /    / // ,<
     ___/ / /___/ /____/ // /| |
    /____/\____/_____/___/_/ |_|
`

// rootCmd represents the base command when called without any subcommands.
// Bare positional arguments are treated as a post, matching the shorthand
// `sclik "hello world"`.
var rootCmd = &cobra.Command{
	Use:   "sclik [message parts or files...]",
	Short: "Sclik - decentralized terminal social network",
	Long: banner + `
Sclik is a decentralized terminal social network built on IPFS.

Posts are content-addressed immutable documents; each user's profile
(the list of their post CIDs) is republished under their IPNS key on
every post, and followers resolve that key to fetch the latest content.

Examples:
  sclik "Your post message"        Post a message
  sclik "Message" notes.txt        Post a message plus a file's content
  sclik follow <ipns-key>          Follow a user by IPNS key
  sclik feed --limit 20            View your feed`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runPost(cmd, args)
	},
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
