// Package profile maintains each local user's profile document: the
// ordered list of their post CIDs, persisted on disk as the canonical
// copy and mirrored into IPFS under the user's IPNS key.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sclik/sclik/internal/printer"
)

// Document is the profile wire format, published to IPFS as-is.
type Document struct {
	Username string   `json:"username"`
	Posts    []string `json:"posts"`
}

// Store is the subset of the IPFS client the profile manager needs.
type Store interface {
	Add(ctx context.Context, data []byte) (string, error)
	EnsureKey(ctx context.Context, name string) error
	KeyID(ctx context.Context, name string) (string, error)
	PublishName(ctx context.Context, keyName, cid string) (string, error)
}

// Manager loads, mutates, persists, and republishes profile documents.
type Manager struct {
	Dir   string
	store Store

	// OnSnapshot, when set, receives the CID of each successfully
	// published profile snapshot (recorded in config for reference).
	OnSnapshot func(cid string)
}

// NewManager creates a profile manager storing documents under dir.
func NewManager(dir string, store Store) *Manager {
	return &Manager{Dir: dir, store: store}
}

func (m *Manager) path(username string) string {
	return filepath.Join(m.Dir, username+".json")
}

// Load reads the on-disk profile for username, or returns a fresh empty
// document if the user has never posted.
func (m *Manager) Load(username string) (*Document, error) {
	data, err := os.ReadFile(m.path(username))
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{Username: username, Posts: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to read profile for %s: %w", username, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse profile for %s: %w", username, err)
	}
	return &doc, nil
}

func (m *Manager) save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode profile for %s: %w", doc.Username, err)
	}
	if err := os.WriteFile(m.path(doc.Username), data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile for %s: %w", doc.Username, err)
	}
	return nil
}

// Update appends newCID to username's profile (if non-empty and not
// already present), persists the document to disk, and then attempts to
// mirror it into IPFS and republish the user's IPNS pointer.
//
// The disk write is the durability boundary: it happens unconditionally
// and is never rolled back. Store failures are reported as warnings and
// the returned snapshot CID is "" — posting must succeed locally even
// when the network is unreachable. The returned error covers local I/O
// only.
func (m *Manager) Update(ctx context.Context, username, newCID string) (string, error) {
	doc, err := m.Load(username)
	if err != nil {
		return "", err
	}

	if newCID != "" && !contains(doc.Posts, newCID) {
		doc.Posts = append(doc.Posts, newCID)
	}
	if err := m.save(doc); err != nil {
		return "", err
	}

	snapshot := m.publish(ctx, doc)
	if snapshot != "" && m.OnSnapshot != nil {
		m.OnSnapshot(snapshot)
	}
	return snapshot, nil
}

// publish mirrors doc into IPFS and repoints the user's IPNS key at the
// new snapshot. Best-effort: any store failure becomes a warning.
func (m *Manager) publish(ctx context.Context, doc *Document) string {
	if err := m.store.EnsureKey(ctx, doc.Username); err != nil {
		printer.Warning("Failed to update profile on IPFS/IPNS: %v\n", err)
		return ""
	}

	keyID, err := m.store.KeyID(ctx, doc.Username)
	if err != nil {
		printer.Warning("Failed to update profile on IPFS/IPNS: %v\n", err)
		return ""
	}
	if keyID != "" {
		printer.Info("Share this IPNS key with followers: %s\n", keyID)
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		printer.Warning("Failed to encode profile for publish: %v\n", err)
		return ""
	}
	snapshot, err := m.store.Add(ctx, data)
	if err != nil {
		printer.Warning("Failed to update profile on IPFS/IPNS: %v\n", err)
		return ""
	}

	// Without a key there is nothing to point at the snapshot; the add
	// alone still makes the bytes content-addressable.
	if keyID != "" {
		err := printer.Spin("Publishing to IPNS...", func() error {
			out, err := m.store.PublishName(ctx, doc.Username, snapshot)
			if err == nil && out != "" {
				printer.Println(out)
			}
			return err
		})
		if err != nil {
			printer.Warning("Failed to publish to IPNS: %v\n", err)
			return ""
		}
	}
	return snapshot
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
