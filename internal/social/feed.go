package social

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sclik/sclik/internal/cache"
	"github.com/sclik/sclik/internal/printer"
	"github.com/sclik/sclik/internal/profile"
	"golang.org/x/sync/errgroup"
)

// Feed merges local posts with every followed user's remote posts and
// returns the trailing limit entries ordered by timestamp ascending.
//
// Every follow is refetched in full on every call — no sync state is
// kept between views. A failing peer or post is logged and skipped;
// one unreachable peer never empties the feed.
func (s *Service) Feed(ctx context.Context, limit int) ([]Entry, error) {
	local, err := s.cache.LocalPosts(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(local))
	for _, p := range local {
		entries = append(entries, Entry{User: p.User, Content: p.Content, Timestamp: p.Timestamp})
	}

	follows, err := s.cache.Follows(ctx)
	if err != nil {
		return nil, err
	}

	// Fetches are independent per follow; ordering comes from the final
	// sort, so completion order does not matter.
	remote := make([][]Entry, len(follows))
	g := new(errgroup.Group)
	g.SetLimit(s.FetchConcurrency)
	launched := 0
	for i, f := range follows {
		if f.Pointer == "" {
			continue
		}
		launched++
		i, f := i, f
		g.Go(func() error {
			remote[i] = s.fetchFollowed(ctx, f)
			return nil
		})
	}
	if launched > 0 {
		// Resolving IPNS pointers is slow; without feedback the feed
		// looks hung. The goroutines report per-peer failures as
		// warnings and always return nil, so Wait's error is moot.
		_ = printer.Spin("Fetching followed profiles...", g.Wait)
	}

	for _, peer := range remote {
		entries = append(entries, peer...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// fetchFollowed pulls one followed user's full post set. Failures are
// per-peer (or per-post) warnings, never errors: aggregation continues
// with whatever could be fetched.
func (s *Service) fetchFollowed(ctx context.Context, f cache.Follow) []Entry {
	cid, err := s.store.ResolveName(ctx, f.Pointer)
	if err != nil {
		printer.Warning("Error resolving IPNS for %s: %v\n", f.Username, err)
		return nil
	}

	data, err := s.store.Cat(ctx, cid)
	if err != nil {
		printer.Warning("Error fetching profile for %s: %v\n", f.Username, err)
		return nil
	}
	var doc profile.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		printer.Warning("Error parsing profile for %s: %v\n", f.Username, err)
		return nil
	}

	var entries []Entry
	for _, postCID := range doc.Posts {
		raw, err := s.store.Cat(ctx, postCID)
		if err != nil {
			printer.Warning("Error fetching post %s for %s: %v\n", postCID, f.Username, err)
			continue
		}
		var post postDocument
		if err := json.Unmarshal(raw, &post); err != nil {
			printer.Warning("Error parsing post %s for %s: %v\n", postCID, f.Username, err)
			continue
		}
		entries = append(entries, Entry{User: post.User, Content: post.Content, Timestamp: post.Timestamp})
	}
	return entries
}
