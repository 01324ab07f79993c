package ipfs

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sclik/sclik/internal/printer"
)

// ReleaseURL is the pinned kubo release installed when no binary is found.
const ReleaseURL = "https://dist.ipfs.tech/kubo/v0.35.0/kubo_v0.35.0_linux-amd64.tar.gz"

// ErrDaemonTimeout is returned when setup succeeded but the daemon never
// reported active within the polling bound. Distinct from setup failures
// so callers can tell "setup failed" from "daemon never came up".
var ErrDaemonTimeout = errors.New("ipfs daemon did not become active in time")

// State is a snapshot of the daemon environment, probed fresh on every
// supervisor run and never cached across invocations.
type State struct {
	BinaryInstalled   bool
	RepoInitialized   bool
	ServiceRegistered bool
	ServiceActive     bool
}

// Supervisor brings the kubo daemon into a running state: installs the
// binary, initializes the repo, registers a restart-always systemd user
// service, and waits for liveness. Safe to call before every store
// operation; the expected fast path is a single liveness probe.
type Supervisor struct {
	Client      *Client
	BinPath     string // ~/.local/bin/ipfs
	RepoPath    string // ~/.ipfs
	ServiceDir  string // ~/.config/systemd/user
	ServiceName string // ipfs.service
	ReleaseURL  string

	PollInterval time.Duration
	PollAttempts int

	runner   Runner
	sleep    func(time.Duration)
	download func(ctx context.Context, url string) (io.ReadCloser, error)
}

// NewSupervisor creates a supervisor with the standard user-level
// layout. The Client is built against the managed binary path, so store
// calls work even on the run that installs the binary.
func NewSupervisor(runner Runner) (*Supervisor, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	binPath := filepath.Join(home, ".local", "bin", "ipfs")
	return &Supervisor{
		Client:       NewClient(binPath, runner),
		BinPath:      binPath,
		RepoPath:     filepath.Join(home, ".ipfs"),
		ServiceDir:   filepath.Join(home, ".config", "systemd", "user"),
		ServiceName:  "ipfs.service",
		ReleaseURL:   ReleaseURL,
		PollInterval: time.Second,
		PollAttempts: 30,
		runner:       runner,
		sleep:        time.Sleep,
		download:     httpDownload,
	}, nil
}

func httpDownload(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Probe derives the current daemon state from the environment.
func (s *Supervisor) Probe(ctx context.Context) State {
	return State{
		BinaryInstalled:   fileExists(s.BinPath),
		RepoInitialized:   fileExists(s.RepoPath),
		ServiceRegistered: fileExists(filepath.Join(s.ServiceDir, s.ServiceName)),
		ServiceActive:     s.isActive(ctx),
	}
}

// EnsureRunning idempotently brings the daemon to an active state.
// Install, init, and registration failures are fatal; a daemon that
// never reports active yields ErrDaemonTimeout.
func (s *Supervisor) EnsureRunning(ctx context.Context) error {
	state := s.Probe(ctx)
	if state.ServiceActive {
		return nil
	}

	if !state.BinaryInstalled {
		printer.Step("IPFS not installed. Installing the binary...\n")
		if err := s.installBinary(ctx); err != nil {
			return fmt.Errorf("failed to install ipfs binary: %w", err)
		}
		printer.Success("Installed ipfs to %s\n", s.BinPath)
	}

	if !state.RepoInitialized {
		printer.Step("Initializing the IPFS repo...\n")
		if err := s.initRepo(ctx); err != nil {
			return fmt.Errorf("failed to initialize ipfs repo: %w", err)
		}
	}

	if !s.isActive(ctx) {
		printer.Step("Registering IPFS as a systemd user service so it keeps running...\n")
		if err := s.registerService(ctx); err != nil {
			return err
		}
	}

	for i := 0; i < s.PollAttempts; i++ {
		if s.isActive(ctx) {
			printer.Success("IPFS daemon is now running.\n")
			return nil
		}
		s.sleep(s.PollInterval)
	}
	return ErrDaemonTimeout
}

// isActive asks systemd whether the unit is active. When systemctl is
// entirely absent from the environment, fall back to probing the daemon
// directly with a swarm query.
func (s *Supervisor) isActive(ctx context.Context) bool {
	if _, err := s.runner.LookPath("systemctl"); err != nil {
		return s.Client.PeersReachable(ctx)
	}
	stdout, _, err := s.runner.Run(ctx, "systemctl", "--user", "is-active", s.ServiceName)
	return err == nil && strings.TrimSpace(stdout) == "active"
}

// installBinary downloads the pinned kubo release and extracts the ipfs
// binary to BinPath with executable permission.
func (s *Supervisor) installBinary(ctx context.Context) error {
	body, err := s.download(ctx, s.ReleaseURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", s.ReleaseURL, err)
	}
	defer body.Close()

	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("failed to decompress release archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("release archive does not contain kubo/ipfs")
		}
		if err != nil {
			return fmt.Errorf("failed to read release archive: %w", err)
		}
		if filepath.Clean(hdr.Name) != filepath.Join("kubo", "ipfs") {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(s.BinPath), 0o755); err != nil {
			return fmt.Errorf("failed to create bin directory: %w", err)
		}
		out, err := os.OpenFile(s.BinPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", s.BinPath, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return fmt.Errorf("failed to write %s: %w", s.BinPath, err)
		}
		return out.Close()
	}
}

// initRepo runs kubo's one-time repo initialization if the data
// directory does not exist yet.
func (s *Supervisor) initRepo(ctx context.Context) error {
	if fileExists(s.RepoPath) {
		return nil
	}
	if _, stderr, err := s.runner.Run(ctx, s.BinPath, "init"); err != nil {
		return commandError("ipfs init failed", stderr, err)
	}
	return nil
}

// registerService writes a restart-always systemd user unit and asks
// systemd to enable and start it.
func (s *Supervisor) registerService(ctx context.Context) error {
	if err := os.MkdirAll(s.ServiceDir, 0o755); err != nil {
		return fmt.Errorf("failed to create systemd user directory: %w", err)
	}

	unit := fmt.Sprintf(`[Unit]
Description=IPFS Daemon

[Service]
ExecStart=%s daemon
Restart=always

[Install]
WantedBy=default.target
`, s.BinPath)

	unitPath := filepath.Join(s.ServiceDir, s.ServiceName)
	if err := os.WriteFile(unitPath, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("failed to write service unit %s: %w", unitPath, err)
	}

	if _, stderr, err := s.runner.Run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return registrationError(s.BinPath, commandError("systemctl daemon-reload failed", stderr, err))
	}
	if _, stderr, err := s.runner.Run(ctx, "systemctl", "--user", "enable", "--now", s.ServiceName); err != nil {
		return registrationError(s.BinPath, commandError("systemctl enable failed", stderr, err))
	}
	return nil
}

// registrationError explains the manual fallback when the supervision
// layer cannot take ownership of the daemon on this platform.
func registrationError(binPath string, err error) error {
	return fmt.Errorf(`failed to register the IPFS service: %w

This setup requires systemd with user-service support.
If your system does not provide it, start the daemon manually:

  %s daemon &

then re-run your sclik command`, err, binPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
