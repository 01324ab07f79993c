package printer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("IPFS setup failed", "The binary could not be installed", []string{})
		require.Error(t, err)
		require.Equal(t, "IPFS setup failed", err.Error())
	})

	t.Run("returns error with title when including suggestions", func(t *testing.T) {
		err := Error("IPFS setup failed", "Explanation", []string{"Re-run the command"})
		require.Error(t, err)
		require.Equal(t, "IPFS setup failed", err.Error())
	})

	t.Run("returns error with title for multiple suggestions", func(t *testing.T) {
		err := Error("IPFS setup failed", "Explanation", []string{
			"Check the service logs",
			"Start the daemon manually",
		})
		require.Error(t, err)
		require.Equal(t, "IPFS setup failed", err.Error())
	})
}

func TestErrorWithContext(t *testing.T) {
	context := map[string]string{
		"Service": "ipfs.service",
		"Binary":  "/home/user/.local/bin/ipfs",
	}
	err := ErrorWithContext("IPFS daemon did not start", "Explanation", context, []string{"Check logs"})
	require.Error(t, err)
	require.Equal(t, "IPFS daemon did not start", err.Error())
}

// Note: Error and ErrorWithContext print formatted output to stderr with
// colors. The returned error only carries the title for Cobra's error
// handling, avoiding duplicate output.

func TestSpinReturnsCallbackError(t *testing.T) {
	wantErr := fmt.Errorf("resolve failed")
	err := Spin("Resolving...", func() error { return wantErr })
	require.ErrorIs(t, err, wantErr)

	err = Spin("Publishing...", func() error { return nil })
	require.NoError(t, err)
}
