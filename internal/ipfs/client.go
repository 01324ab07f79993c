// Package ipfs wraps the kubo binary: the content-addressed store
// operations the rest of sclik is built on, plus the supervisor that
// keeps the kubo daemon alive as a systemd user service.
package ipfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Client shells out to the kubo binary for store operations. All
// operations may take multiple seconds; callers own progress display.
type Client struct {
	bin    string
	runner Runner
}

// NewClient creates a store client around the kubo binary at bin.
func NewClient(bin string, runner Runner) *Client {
	return &Client{bin: bin, runner: runner}
}

// commandError folds kubo's stderr into the error so network failures
// are distinguishable from local ones in warnings and logs.
func commandError(op string, stderr string, err error) error {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("%s: %w: %s", op, err, msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Add stores data in IPFS and returns its CID. Content addressing means
// identical bytes always yield the identical CID.
func (c *Client) Add(ctx context.Context, data []byte) (string, error) {
	// kubo's add takes a file path, not stdin, in our usage
	tmp := filepath.Join(os.TempDir(), "sclik-"+uuid.NewString()+".json")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage blob for add: %w", err)
	}
	defer os.Remove(tmp)

	stdout, stderr, err := c.runner.Run(ctx, c.bin, "add", "-q", tmp)
	if err != nil {
		return "", commandError("ipfs add failed", stderr, err)
	}
	cid := strings.TrimSpace(stdout)
	if cid == "" {
		return "", fmt.Errorf("ipfs add returned no CID")
	}
	return cid, nil
}

// Cat fetches the content stored under cid.
func (c *Client) Cat(ctx context.Context, cid string) ([]byte, error) {
	stdout, stderr, err := c.runner.Run(ctx, c.bin, "cat", cid)
	if err != nil {
		return nil, commandError(fmt.Sprintf("ipfs cat %s failed", cid), stderr, err)
	}
	return []byte(stdout), nil
}

// EnsureKey generates an ed25519 IPNS key named name if one does not
// already exist. Idempotent.
func (c *Client) EnsureKey(ctx context.Context, name string) error {
	stdout, stderr, err := c.runner.Run(ctx, c.bin, "key", "list")
	if err != nil {
		return commandError("ipfs key list failed", stderr, err)
	}
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == name {
			return nil
		}
	}

	if _, stderr, err := c.runner.Run(ctx, c.bin, "key", "gen", "--type=ed25519", name); err != nil {
		return commandError(fmt.Sprintf("ipfs key gen %s failed", name), stderr, err)
	}
	return nil
}

// KeyID returns the IPNS key ID for the named key, or "" if the key does
// not exist. The ID is what followers pass to sclik follow.
func (c *Client) KeyID(ctx context.Context, name string) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, c.bin, "key", "list", "-l")
	if err != nil {
		return "", commandError("ipfs key list failed", stderr, err)
	}
	for _, line := range strings.Split(stdout, "\n") {
		parts := strings.Fields(line)
		if len(parts) == 2 && parts[1] == name {
			return parts[0], nil
		}
	}
	return "", nil
}

// PublishName points the named IPNS key at cid. Only the holder of the
// key can do this; last publish wins. Returns kubo's confirmation line.
func (c *Client) PublishName(ctx context.Context, keyName, cid string) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, c.bin,
		"name", "publish", "--key="+keyName, "/ipfs/"+cid)
	if err != nil {
		return "", commandError("ipfs name publish failed", stderr, err)
	}
	return strings.TrimSpace(stdout), nil
}

// ResolveName resolves an IPNS pointer to the CID it currently names.
func (c *Client) ResolveName(ctx context.Context, pointer string) (string, error) {
	stdout, stderr, err := c.runner.Run(ctx, c.bin, "name", "resolve", pointer)
	if err != nil {
		return "", commandError(fmt.Sprintf("ipfs name resolve %s failed", pointer), stderr, err)
	}
	resolved := strings.TrimSpace(stdout)
	return strings.TrimPrefix(resolved, "/ipfs/"), nil
}

// PeersReachable reports whether the local daemon answers a swarm query.
// Used as the liveness fallback when systemctl is unavailable.
func (c *Client) PeersReachable(ctx context.Context) bool {
	_, _, err := c.runner.Run(ctx, c.bin, "swarm", "peers")
	return err == nil
}
