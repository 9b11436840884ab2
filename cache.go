package inkwell

import (
	"database/sql"
	"sync"
	"time"
)

// ErrNoRows aliases the store's not-found sentinel for cache callers.
var ErrNoRows = sql.ErrNoRows

// PostCache is an in-memory TTL cache of published posts and their
// categories. Every lifecycle mutation invalidates it, so public pages see
// a change at most one handler call later.
type PostCache struct {
	mu         sync.RWMutex
	posts      []Post
	categories []string
	loaded     bool
	fetched    time.Time
	ttl        time.Duration
	store      *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

// valid tracks freshness with an explicit flag so an empty published set
// is cached like any other result instead of reloading on every request.
func (c *PostCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.categories = nil
	c.loaded = false
	c.mu.Unlock()
}

func (c *PostCache) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPublished("")
	if err != nil {
		return err
	}
	categories, err := c.store.ListCategories()
	if err != nil {
		return err
	}
	c.posts = posts
	c.categories = categories
	c.loaded = true
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached posts and categories after ensuring freshness.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded() ([]Post, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, categories := c.posts, c.categories
		c.mu.RUnlock()
		return posts, categories, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, nil, err
	}
	return c.posts, c.categories, nil
}

// ListPublished returns published posts, optionally filtered by category.
func (c *PostCache) ListPublished(category string) ([]Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if category == "" {
		return posts, nil
	}
	var filtered []Post
	for _, p := range posts {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// ListFeatured returns published posts marked featured.
func (c *PostCache) ListFeatured() ([]Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return nil, err
	}
	var featured []Post
	for _, p := range posts {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured, nil
}

// ListCategories returns the categories of all published posts.
func (c *PostCache) ListCategories() ([]string, error) {
	_, categories, err := c.ensureLoaded()
	return categories, err
}

// GetPublished returns a single published post by id from the cache.
func (c *PostCache) GetPublished(id string) (Post, error) {
	posts, _, err := c.ensureLoaded()
	if err != nil {
		return Post{}, err
	}
	for _, p := range posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, ErrNoRows
}
