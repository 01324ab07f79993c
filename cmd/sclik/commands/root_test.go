package commands

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestExecuteConfiguresErrorSilencing verifies Execute silences Cobra's
// own error printing: the printer package writes the formatted error
// block to stderr itself, and main prints the title once.
func TestExecuteConfiguresErrorSilencing(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"help"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute())
	require.True(t, rootCmd.SilenceErrors)
	require.True(t, rootCmd.SilenceUsage)
}

// TestErrorSilencingSuppressesDuplicateOutput exercises the silencing
// contract on a command configured the way Execute configures rootCmd:
// a failing RunE must not trigger Cobra's "Error: ..." line.
func TestErrorSilencingSuppressesDuplicateOutput(t *testing.T) {
	testRoot := &cobra.Command{
		Use: "sclik",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("IPFS setup failed")
		},
	}
	testRoot.SilenceErrors = true
	testRoot.SilenceUsage = true

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	err := testRoot.Execute()
	require.Error(t, err)
	require.Equal(t, "IPFS setup failed", err.Error())
	require.Empty(t, buf.String(), "cobra must not print the error a second time")
}
