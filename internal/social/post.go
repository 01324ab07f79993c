package social

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sclik/sclik/internal/cache"
	"github.com/sclik/sclik/internal/printer"
)

// postDocument is the post wire format published to IPFS.
type postDocument struct {
	User      string  `json:"user"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// Post publishes content as username: best-effort add to IPFS, an
// unconditional append to the local cache, and a profile republish. A
// post is never lost to network unavailability — it may simply stay
// unpublished (empty CID).
func (s *Service) Post(ctx context.Context, username, content string) error {
	doc := postDocument{
		User:      username,
		Content:   content,
		Timestamp: s.timestamp(),
	}

	cid := ""
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode post: %w", err)
	}
	if added, err := s.store.Add(ctx, data); err != nil {
		printer.Warning("Failed to publish to IPFS: %v. Storing locally only.\n", err)
	} else {
		cid = added
	}

	if err := s.cache.AppendPost(ctx, cache.Post{
		User:      username,
		Content:   content,
		Timestamp: doc.Timestamp,
		ContentID: cid,
	}); err != nil {
		return err
	}

	if _, err := s.profiles.Update(ctx, username, cid); err != nil {
		return err
	}
	return nil
}

// timestamp returns unix seconds, strictly increasing within a process
// so two rapid posts keep their ordering in the feed.
func (s *Service) timestamp() float64 {
	ts := float64(s.now().UnixNano()) / 1e9
	if ts <= s.lastTS {
		ts = s.lastTS + 1e-6
	}
	s.lastTS = ts
	return ts
}
