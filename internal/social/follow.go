package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sclik/sclik/internal/printer"
	"github.com/sclik/sclik/internal/profile"
)

// ErrNoUsername is returned when a resolved profile does not declare a
// username, so there is nothing to key the follow record on.
var ErrNoUsername = errors.New("profile does not contain a username")

// Follow resolves an IPNS pointer, reads the profile it names, and
// records a follow keyed by the profile's self-declared username
// (re-following the same username overwrites the pointer).
//
// Identity is discovered from content, not supplied by the caller: the
// name shown in the feed is whatever the remote profile claims.
func (s *Service) Follow(ctx context.Context, pointer string) (string, error) {
	var cid string
	err := printer.Spin("Resolving IPNS key...", func() error {
		var err error
		cid, err = s.store.ResolveName(ctx, pointer)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", pointer, err)
	}

	data, err := s.store.Cat(ctx, cid)
	if err != nil {
		return "", fmt.Errorf("failed to fetch profile %s: %w", cid, err)
	}

	var doc profile.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse profile %s: %w", cid, err)
	}
	if doc.Username == "" {
		return "", fmt.Errorf("profile %s: %w", cid, ErrNoUsername)
	}

	if err := s.cache.UpsertFollow(ctx, doc.Username, pointer); err != nil {
		return "", err
	}
	return doc.Username, nil
}
