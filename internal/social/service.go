// Package social composes the cache, the IPFS store, and the profile
// manager into the three user-facing operations: post, follow, and feed.
package social

import (
	"context"
	"time"

	"github.com/sclik/sclik/internal/cache"
)

// Store is the subset of the IPFS client the social service needs.
type Store interface {
	Add(ctx context.Context, data []byte) (string, error)
	Cat(ctx context.Context, cid string) ([]byte, error)
	ResolveName(ctx context.Context, pointer string) (string, error)
}

// Cache is the durable local store of own posts and follows.
type Cache interface {
	AppendPost(ctx context.Context, p cache.Post) error
	LocalPosts(ctx context.Context) ([]cache.Post, error)
	UpsertFollow(ctx context.Context, username, pointer string) error
	Follows(ctx context.Context) ([]cache.Follow, error)
}

// Profiles republishes a user's profile after a post.
type Profiles interface {
	Update(ctx context.Context, username, newCID string) (string, error)
}

// Entry is one item in the merged feed.
type Entry struct {
	User      string
	Content   string
	Timestamp float64
}

// Service implements the post/follow/feed operations.
type Service struct {
	store    Store
	cache    Cache
	profiles Profiles

	// FetchConcurrency bounds parallel per-follow fetches during feed
	// aggregation so the local daemon is not overwhelmed.
	FetchConcurrency int

	now    func() time.Time
	lastTS float64
}

// NewService creates a social service over the given collaborators.
func NewService(store Store, c Cache, profiles Profiles) *Service {
	return &Service{
		store:            store,
		cache:            c,
		profiles:         profiles,
		FetchConcurrency: 4,
		now:              time.Now,
	}
}
