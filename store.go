package inkwell

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store wraps a SQL database and provides persistence for users, posts,
// images, and subscribers. It enforces nothing: ownership and role checks
// all live in the Lifecycle controller.
type Store struct {
	db       *sql.DB
	postgres bool
}

// NewStore opens the database described by driver ("sqlite" or "postgres")
// and dsn, and runs schema migrations. For SQLite the data directory is
// created as needed.
func NewStore(driver, dsn string) (*Store, error) {
	var db *sql.DB
	var err error
	postgres := false
	switch driver {
	case "", "sqlite":
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// WAL for concurrent read/write, busy timeout so writers wait
		// instead of returning SQLITE_BUSY, synchronous=NORMAL is safe
		// under WAL.
		if _, err := db.Exec(`
			PRAGMA journal_mode=WAL;
			PRAGMA busy_timeout=5000;
			PRAGMA synchronous=NORMAL;
			PRAGMA cache_size=-8000;
		`); err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	case "postgres":
		postgres = true
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	s := &Store{db: db, postgres: postgres}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders to "$1..$n" when talking to Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

// The DDL sticks to TEXT and INTEGER so the same statements run on both
// SQLite and Postgres. Timestamps are stored as RFC 3339 strings.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    bio TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    featured INTEGER NOT NULL DEFAULT 0,
    image TEXT NOT NULL DEFAULT '',
    sources TEXT NOT NULL DEFAULT '',
    user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    uploaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subscribers (
    email TEXT PRIMARY KEY,
    created_at TEXT NOT NULL
);
`)
	return err
}

// --- users ---

// CreateUser inserts a new user row.
func (s *Store) CreateUser(u User) error {
	_, err := s.exec(`INSERT INTO users (id, username, role, password_hash, bio, avatar_url, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, string(u.Role), u.PasswordHash, u.Bio, u.AvatarURL, formatTime(u.CreatedAt))
	return err
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(username string) (User, error) {
	return s.scanUser(s.queryRow(`SELECT id, username, role, password_hash, bio, avatar_url, created_at FROM users WHERE username = ?`, username))
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(id string) (User, error) {
	return s.scanUser(s.queryRow(`SELECT id, username, role, password_hash, bio, avatar_url, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	var role, createdAt string
	if err := row.Scan(&u.ID, &u.Username, &role, &u.PasswordHash, &u.Bio, &u.AvatarURL, &createdAt); err != nil {
		return User{}, err
	}
	u.Role = Role(role)
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

// UpdateProfile sets the bio and avatar URL for a user.
func (s *Store) UpdateProfile(id, bio, avatarURL string) error {
	_, err := s.exec(`UPDATE users SET bio = ?, avatar_url = ? WHERE id = ?`, bio, avatarURL, id)
	return err
}

// CountUsers returns the number of user rows; used to decide whether the
// bootstrap super-admin needs to be created.
func (s *Store) CountUsers() (int, error) {
	var n int
	err := s.queryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// --- posts ---

const postColumns = `id, title, content, category, featured, image, sources, user_id, status, created_at`

// InsertPost inserts a new post row.
func (s *Store) InsertPost(p Post) error {
	_, err := s.exec(`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.Category, boolToInt(p.Featured), p.Image,
		joinSources(p.Sources), p.UserID, string(p.Status), formatTime(p.CreatedAt))
	return err
}

// UpdatePost rewrites every editable column of an existing post.
func (s *Store) UpdatePost(p Post) error {
	_, err := s.exec(`UPDATE posts SET title = ?, content = ?, category = ?, featured = ?, image = ?, sources = ?, status = ? WHERE id = ?`,
		p.Title, p.Content, p.Category, boolToInt(p.Featured), p.Image,
		joinSources(p.Sources), string(p.Status), p.ID)
	return err
}

// SetStatus updates only the status column.
func (s *Store) SetStatus(id string, status Status) error {
	_, err := s.exec(`UPDATE posts SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// GetPost returns a post by id regardless of status (for the dashboard and
// the lifecycle controller).
func (s *Store) GetPost(id string) (Post, error) {
	return s.scanPost(s.queryRow(`SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

// GetPublishedPost returns a post by id only if it is published.
func (s *Store) GetPublishedPost(id string) (Post, error) {
	return s.scanPost(s.queryRow(`SELECT `+postColumns+` FROM posts WHERE id = ? AND status = ?`, id, string(StatusPublished)))
}

func (s *Store) scanPost(row *sql.Row) (Post, error) {
	var p Post
	var featured int
	var sources, status, createdAt string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Category, &featured, &p.Image, &sources, &p.UserID, &status, &createdAt); err != nil {
		return Post{}, err
	}
	p.Featured = featured == 1
	p.Sources = splitSources(sources)
	p.Status = Status(status)
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// ListPublished returns published posts ordered by creation date descending.
// If category is non-empty, results are filtered to that category.
func (s *Store) ListPublished(category string) ([]Post, error) {
	if category == "" {
		return s.listPosts(`SELECT `+postColumns+` FROM posts WHERE status = ? ORDER BY created_at DESC`, string(StatusPublished))
	}
	return s.listPosts(`SELECT `+postColumns+` FROM posts WHERE status = ? AND category = ? ORDER BY created_at DESC`,
		string(StatusPublished), category)
}

// ListAll returns every post in every status, newest first (for the
// dashboard; mutation gating happens in the lifecycle controller, matching
// a dashboard that shows all posts to any signed-in author).
func (s *Store) ListAll() ([]Post, error) {
	return s.listPosts(`SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`)
}

func (s *Store) listPosts(query string, args ...any) ([]Post, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var featured int
		var sources, status, createdAt string
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Category, &featured, &p.Image, &sources, &p.UserID, &status, &createdAt); err != nil {
			return nil, err
		}
		p.Featured = featured == 1
		p.Sources = splitSources(sources)
		p.Status = Status(status)
		p.CreatedAt = parseTime(createdAt)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListCategories returns a sorted, deduplicated slice of categories that
// have at least one published post.
func (s *Store) ListCategories() ([]string, error) {
	rows, err := s.query(`SELECT DISTINCT category FROM posts WHERE status = ?`, string(StatusPublished))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(cats)
	return cats, nil
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(id string) error {
	_, err := s.exec(`DELETE FROM posts WHERE id = ?`, id)
	return err
}

// --- images ---

// SaveImage records upload metadata.
func (s *Store) SaveImage(img Image) error {
	_, err := s.exec(`INSERT INTO images (filename, original_name, width, height, size, user_id, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UserID, formatTime(img.UploadedAt))
	return err
}

// ListImages returns all upload metadata, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.query(`SELECT filename, original_name, width, height, size, user_id, uploaded_at FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		var uploadedAt string
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UserID, &uploadedAt); err != nil {
			return nil, err
		}
		img.UploadedAt = parseTime(uploadedAt)
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetImage returns upload metadata by filename.
func (s *Store) GetImage(filename string) (Image, error) {
	var img Image
	var uploadedAt string
	err := s.queryRow(`SELECT filename, original_name, width, height, size, user_id, uploaded_at FROM images WHERE filename = ?`, filename).
		Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height, &img.Size, &img.UserID, &uploadedAt)
	if err != nil {
		return Image{}, err
	}
	img.UploadedAt = parseTime(uploadedAt)
	return img, nil
}

// DeleteImage removes upload metadata by filename.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// --- subscribers ---

// AddSubscriber records a newsletter signup. Duplicate emails are ignored.
func (s *Store) AddSubscriber(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := s.exec(`INSERT INTO subscribers (email, created_at) VALUES (?, ?)`, email, formatTime(time.Now().UTC()))
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return nil
	}
	return err
}

// CountSubscribers returns the number of newsletter signups.
func (s *Store) CountSubscribers() (int, error) {
	var n int
	err := s.queryRow(`SELECT COUNT(*) FROM subscribers`).Scan(&n)
	return n, err
}

// --- helpers ---

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// joinSources flattens source URLs into one newline-delimited column.
func joinSources(sources []string) string {
	var kept []string
	for _, src := range sources {
		if s := strings.TrimSpace(src); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n")
}

func splitSources(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "\n")
	var out []string
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
