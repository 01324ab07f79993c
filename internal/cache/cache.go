// Package cache is the durable local store: an append-only log of this
// node's own posts plus the table of followed users. Posts authored
// locally are kept forever; followed users' posts are never cached and
// are refetched from IPFS on every feed view.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Post is a locally authored post. ContentID is empty when the IPFS add
// failed at post time; that is a valid terminal state, not an error.
type Post struct {
	User      string
	Content   string
	Timestamp float64
	ContentID string
}

// Follow maps a followed user's self-declared username to the IPNS key
// their posts are resolved through.
type Follow struct {
	Username string
	Pointer  string
}

// DB wraps the sqlite connection pool for the local cache.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if necessary) the cache database at path and runs
// migrations. Use ":memory:" in tests.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to reach cache database: %w", err)
	}

	// WAL lets a feed read proceed while a post commit is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			user      TEXT NOT NULL,
			content   TEXT NOT NULL,
			timestamp REAL NOT NULL,
			ipfs_hash TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_posts_timestamp ON posts(timestamp);
		CREATE TABLE IF NOT EXISTS follows (
			username TEXT PRIMARY KEY,
			ipns_key TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return nil
}

// AppendPost records a locally authored post. The log is append-only;
// posts are never updated or deleted.
func (db *DB) AppendPost(ctx context.Context, p Post) error {
	var cid any
	if p.ContentID != "" {
		cid = p.ContentID
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (user, content, timestamp, ipfs_hash) VALUES (?, ?, ?, ?)`,
		p.User, p.Content, p.Timestamp, cid,
	)
	if err != nil {
		return fmt.Errorf("failed to record post: %w", err)
	}
	return nil
}

// LocalPosts returns every locally authored post ordered by creation time.
func (db *DB) LocalPosts(ctx context.Context) ([]Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user, content, timestamp, ipfs_hash FROM posts ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read local posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var cid sql.NullString
		if err := rows.Scan(&p.User, &p.Content, &p.Timestamp, &cid); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		p.ContentID = cid.String
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// UpsertFollow records that pointer is followed under username,
// replacing any previous pointer for the same username (last write wins).
func (db *DB) UpsertFollow(ctx context.Context, username, pointer string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO follows (username, ipns_key) VALUES (?, ?)`,
		username, pointer,
	)
	if err != nil {
		return fmt.Errorf("failed to record follow for %s: %w", username, err)
	}
	return nil
}

// Follows returns the follow table ordered by username.
func (db *DB) Follows(ctx context.Context) ([]Follow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT username, ipns_key FROM follows ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read follows: %w", err)
	}
	defer rows.Close()

	var follows []Follow
	for rows.Next() {
		var f Follow
		if err := rows.Scan(&f.Username, &f.Pointer); err != nil {
			return nil, fmt.Errorf("failed to scan follow row: %w", err)
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follows: %w", err)
	}
	return follows, nil
}
