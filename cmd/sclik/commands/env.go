package commands

import (
	"context"
	"errors"
	"os"

	"github.com/sclik/sclik/internal/cache"
	"github.com/sclik/sclik/internal/config"
	"github.com/sclik/sclik/internal/ipfs"
	"github.com/sclik/sclik/internal/printer"
	"github.com/sclik/sclik/internal/profile"
	"github.com/sclik/sclik/internal/social"
)

// env wires the collaborators every store-touching command needs. Setup
// always runs the daemon supervisor first: by the time a command body
// executes, the IPFS daemon is known to be active.
type env struct {
	paths    config.Paths
	client   *ipfs.Client
	db       *cache.DB
	profiles *profile.Manager
	service  *social.Service
}

func setup(ctx context.Context) (*env, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	sup, err := ipfs.NewSupervisor(ipfs.NewExecRunner())
	if err != nil {
		return nil, err
	}
	client := sup.Client

	if err := sup.EnsureRunning(ctx); err != nil {
		if errors.Is(err, ipfs.ErrDaemonTimeout) {
			return nil, printer.ErrorWithContext(
				"IPFS daemon did not start",
				"Setup completed but the daemon never reported active within 30 seconds.",
				map[string]string{
					"Service": sup.ServiceName,
					"Binary":  sup.BinPath,
				},
				[]string{
					"Check the service logs: journalctl --user -u " + sup.ServiceName,
					"Start the daemon manually: " + sup.BinPath + " daemon",
				})
		}
		return nil, printer.Error("IPFS setup failed", err.Error(), []string{
			"Resolve the issue above, then re-run your sclik command",
		})
	}

	db, err := cache.Open(paths.DB)
	if err != nil {
		return nil, err
	}

	profiles := profile.NewManager(paths.ProfileDir, client)
	profiles.OnSnapshot = func(cid string) {
		cfg, err := config.Load(paths.ConfigFile)
		if err != nil {
			return
		}
		cfg.ProfileHash = cid
		if err := config.Save(paths.ConfigFile, cfg); err != nil {
			printer.Warning("Failed to record profile snapshot: %v\n", err)
		}
	}

	return &env{
		paths:    paths,
		client:   client,
		db:       db,
		profiles: profiles,
		service:  social.NewService(client, db, profiles),
	}, nil
}

func (e *env) close() {
	e.db.Close()
}

// username returns the configured username, prompting interactively on
// first use.
func (e *env) username() (string, error) {
	return config.EnsureUsername(e.paths.ConfigFile, os.Stdin, os.Stdout)
}
