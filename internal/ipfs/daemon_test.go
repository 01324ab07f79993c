package ipfs

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

func testSupervisor(t *testing.T, runner *fakeRunner) *Supervisor {
	t.Helper()
	dir := t.TempDir()
	binPath := filepath.Join(dir, "bin", "ipfs")
	return &Supervisor{
		Client:       NewClient(binPath, runner),
		BinPath:      binPath,
		RepoPath:     filepath.Join(dir, ".ipfs"),
		ServiceDir:   filepath.Join(dir, "systemd", "user"),
		ServiceName:  "ipfs.service",
		ReleaseURL:   "https://dist.example/kubo.tar.gz",
		PollInterval: time.Second,
		PollAttempts: 3,
		runner:       runner,
		sleep:        func(time.Duration) {},
		download: func(ctx context.Context, url string) (io.ReadCloser, error) {
			return nil, fmt.Errorf("download not expected in this test")
		},
	}
}

// kuboArchive builds a minimal release tarball containing kubo/ipfs.
func kuboArchive(t *testing.T, binary []byte) io.ReadCloser {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "kubo/LICENSE", Mode: 0o644, Size: 3}))
	_, err := tw.Write([]byte("MIT"))
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "kubo/ipfs", Mode: 0o755, Size: int64(len(binary))}))
	_, err = tw.Write(binary)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return io.NopCloser(&buf)
}

func TestEnsureRunningFastPath(t *testing.T) {
	runner := &fakeRunner{
		handler: func(name string, args []string) (string, string, error) {
			return "active\n", "", nil
		},
	}
	s := testSupervisor(t, runner)

	require.NoError(t, s.EnsureRunning(context.Background()))
	require.NoError(t, s.EnsureRunning(context.Background()))

	// Two invocations, one liveness probe each, zero side effects.
	require.Equal(t, []string{
		"systemctl --user is-active ipfs.service",
		"systemctl --user is-active ipfs.service",
	}, runner.calls)
	require.NoFileExists(t, s.BinPath)
	require.NoFileExists(t, filepath.Join(s.ServiceDir, s.ServiceName))
}

func TestEnsureRunningFallsBackToSwarmProbe(t *testing.T) {
	runner := &fakeRunner{
		missing: map[string]bool{"systemctl": true},
		handler: func(name string, args []string) (string, string, error) {
			if len(args) >= 2 && args[0] == "swarm" && args[1] == "peers" {
				return "/ip4/10.0.0.1/tcp/4001/p2p/Qm\n", "", nil
			}
			return "", "", fmt.Errorf("unexpected command %s %v", name, args)
		},
	}
	s := testSupervisor(t, runner)

	require.NoError(t, s.EnsureRunning(context.Background()))
	require.Equal(t, []string{s.BinPath + " swarm peers"}, runner.calls)
}

func TestEnsureRunningBootstrapsEverything(t *testing.T) {
	enabled := false
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) (string, string, error) {
		switch {
		case name == "systemctl" && args[1] == "is-active":
			if enabled {
				return "active\n", "", nil
			}
			return "inactive\n", "", fmt.Errorf("exit status 3")
		case name == "systemctl" && args[1] == "daemon-reload":
			return "", "", nil
		case name == "systemctl" && args[1] == "enable":
			enabled = true
			return "", "", nil
		case strings.HasSuffix(name, "ipfs") && args[0] == "init":
			return "generating ED25519 keypair...done\n", "", nil
		}
		return "", "", fmt.Errorf("unexpected command %s %v", name, args)
	}

	s := testSupervisor(t, runner)
	s.download = func(ctx context.Context, url string) (io.ReadCloser, error) {
		require.Equal(t, s.ReleaseURL, url)
		return kuboArchive(t, []byte("fake-kubo-binary")), nil
	}

	require.NoError(t, s.EnsureRunning(context.Background()))

	// Binary extracted with executable permission.
	data, err := os.ReadFile(s.BinPath)
	require.NoError(t, err)
	require.Equal(t, "fake-kubo-binary", string(data))
	info, err := os.Stat(s.BinPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// Repo initialized via the freshly installed binary.
	require.Contains(t, runner.calls, s.BinPath+" init")

	// Restart-always user unit registered and started.
	unit, err := os.ReadFile(filepath.Join(s.ServiceDir, s.ServiceName))
	require.NoError(t, err)
	require.Contains(t, string(unit), "ExecStart="+s.BinPath+" daemon")
	require.Contains(t, string(unit), "Restart=always")
	require.Contains(t, runner.calls, "systemctl --user daemon-reload")
	require.Contains(t, runner.calls, "systemctl --user enable --now ipfs.service")
}

func TestEnsureRunningSkipsInitWhenRepoExists(t *testing.T) {
	enabled := false
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) (string, string, error) {
		if name == "systemctl" && args[1] == "is-active" {
			if enabled {
				return "active\n", "", nil
			}
			return "inactive\n", "", fmt.Errorf("exit status 3")
		}
		if name == "systemctl" && args[1] == "enable" {
			enabled = true
		}
		return "", "", nil
	}

	s := testSupervisor(t, runner)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.BinPath), 0o755))
	require.NoError(t, os.WriteFile(s.BinPath, []byte("kubo"), 0o755))
	require.NoError(t, os.MkdirAll(s.RepoPath, 0o755))

	require.NoError(t, s.EnsureRunning(context.Background()))
	require.NotContains(t, runner.calls, s.BinPath+" init")
}

func TestEnsureRunningTimesOut(t *testing.T) {
	slept := 0
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) (string, string, error) {
		if name == "systemctl" && args[1] == "is-active" {
			return "activating\n", "", fmt.Errorf("exit status 3")
		}
		return "", "", nil
	}

	s := testSupervisor(t, runner)
	s.sleep = func(time.Duration) { slept++ }
	require.NoError(t, os.MkdirAll(filepath.Dir(s.BinPath), 0o755))
	require.NoError(t, os.WriteFile(s.BinPath, []byte("kubo"), 0o755))
	require.NoError(t, os.MkdirAll(s.RepoPath, 0o755))

	err := s.EnsureRunning(context.Background())
	require.ErrorIs(t, err, ErrDaemonTimeout)
	require.Equal(t, s.PollAttempts, slept)
}

func TestRegisterServiceFailureIsActionable(t *testing.T) {
	runner := &fakeRunner{}
	runner.handler = func(name string, args []string) (string, string, error) {
		if name == "systemctl" && args[1] == "is-active" {
			return "inactive\n", "", fmt.Errorf("exit status 3")
		}
		if name == "systemctl" && args[1] == "enable" {
			return "", "Failed to connect to user bus\n", fmt.Errorf("exit status 1")
		}
		return "", "", nil
	}

	s := testSupervisor(t, runner)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.BinPath), 0o755))
	require.NoError(t, os.WriteFile(s.BinPath, []byte("kubo"), 0o755))
	require.NoError(t, os.MkdirAll(s.RepoPath, 0o755))

	err := s.EnsureRunning(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDaemonTimeout)
	require.Contains(t, err.Error(), "start the daemon manually")
	require.Contains(t, err.Error(), "Failed to connect to user bus")
}

func TestProbe(t *testing.T) {
	runner := &fakeRunner{
		handler: func(name string, args []string) (string, string, error) {
			return "active\n", "", nil
		},
	}
	s := testSupervisor(t, runner)

	state := s.Probe(context.Background())
	require.False(t, state.BinaryInstalled)
	require.False(t, state.RepoInitialized)
	require.False(t, state.ServiceRegistered)
	require.True(t, state.ServiceActive)

	require.NoError(t, os.MkdirAll(filepath.Dir(s.BinPath), 0o755))
	require.NoError(t, os.WriteFile(s.BinPath, []byte("kubo"), 0o755))
	require.NoError(t, os.MkdirAll(s.RepoPath, 0o755))

	state = s.Probe(context.Background())
	require.True(t, state.BinaryInstalled)
	require.True(t, state.RepoInitialized)
}
