package inkwell

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("sqlite", filepath.Join(t.TempDir(), "blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestPost(t *testing.T, s *Store, title, category string, status Status, createdAt time.Time) Post {
	t.Helper()
	p := Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   "<p>body</p>",
		Category:  category,
		UserID:    "user-1",
		Status:    status,
		CreatedAt: createdAt,
	}
	if err := s.InsertPost(p); err != nil {
		t.Fatalf("InsertPost failed: %v", err)
	}
	return p
}

func TestUserRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	u := User{
		ID:           uuid.NewString(),
		Username:     "ada",
		Role:         RoleAuthor,
		PasswordHash: "$argon2id$fake",
		Bio:          "writes about lovelace engines",
	}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := s.GetUserByUsername("ada")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.ID != u.ID || got.Role != RoleAuthor || got.Bio != u.Bio {
		t.Errorf("got %+v, want %+v", got, u)
	}

	if _, err := s.GetUserByUsername("nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	if err := s.UpdateProfile(u.ID, "new bio", "/avatar.jpg"); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	got, err = s.GetUser(u.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Bio != "new bio" || got.AvatarURL != "/avatar.jpg" {
		t.Errorf("profile not updated: %+v", got)
	}

	n, err := s.CountUsers()
	if err != nil || n != 1 {
		t.Errorf("CountUsers = %d, %v; want 1", n, err)
	}
}

func TestDuplicateUsername(t *testing.T) {
	s := setupTestStore(t)
	u := User{ID: uuid.NewString(), Username: "ada", Role: RoleAuthor, PasswordHash: "h"}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	u.ID = uuid.NewString()
	if err := s.CreateUser(u); err == nil {
		t.Error("expected unique constraint violation on duplicate username")
	}
}

func TestPostRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	p := Post{
		ID:       uuid.NewString(),
		Title:    "Hello",
		Content:  "<p>hi</p>",
		Category: "PRIVACY",
		Featured: true,
		Image:    "/public/uploads/u/1_x.jpg",
		Sources:  []string{"https://example.com/a", "https://example.com/b"},
		UserID:   "user-1",
		Status:   StatusDraft,
	}
	if err := s.InsertPost(p); err != nil {
		t.Fatalf("InsertPost failed: %v", err)
	}

	got, err := s.GetPost(p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != p.Title || !got.Featured || got.Status != StatusDraft {
		t.Errorf("got %+v", got)
	}
	if len(got.Sources) != 2 || got.Sources[1] != "https://example.com/b" {
		t.Errorf("sources = %v", got.Sources)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be backfilled for zero time")
	}

	got.Title = "Hello again"
	got.Status = StatusPublished
	got.Sources = nil
	if err := s.UpdatePost(got); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	got, err = s.GetPost(p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Hello again" || got.Status != StatusPublished || got.Sources != nil {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.DeletePost(p.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(p.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestListPublishedFiltering(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	insertTestPost(t, s, "old pub", "PRIVACY", StatusPublished, base)
	insertTestPost(t, s, "new pub", "AI ETHICS", StatusPublished, base.Add(time.Hour))
	insertTestPost(t, s, "draft", "PRIVACY", StatusDraft, base.Add(2*time.Hour))
	insertTestPost(t, s, "pending", "PRIVACY", StatusPendingApproval, base.Add(3*time.Hour))

	posts, err := s.ListPublished("")
	if err != nil {
		t.Fatalf("ListPublished failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("published count = %d, want 2", len(posts))
	}
	if posts[0].Title != "new pub" || posts[1].Title != "old pub" {
		t.Errorf("wrong order: %s, %s", posts[0].Title, posts[1].Title)
	}

	posts, err = s.ListPublished("PRIVACY")
	if err != nil {
		t.Fatalf("ListPublished(category) failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "old pub" {
		t.Errorf("category filter wrong: %v", posts)
	}

	all, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("ListAll count = %d, want 4", len(all))
	}

	if _, err := s.GetPublishedPost(all[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetPublishedPost should not return the pending post, got %v", err)
	}
}

func TestListCategories(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	insertTestPost(t, s, "a", "PRIVACY", StatusPublished, base)
	insertTestPost(t, s, "b", "PRIVACY", StatusPublished, base)
	insertTestPost(t, s, "c", "AI ETHICS", StatusPublished, base)
	// Categories with only unpublished posts stay hidden.
	insertTestPost(t, s, "d", "CYBERSECURITY", StatusDraft, base)

	cats, err := s.ListCategories()
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	want := []string{"AI ETHICS", "PRIVACY"}
	if len(cats) != len(want) {
		t.Fatalf("categories = %v, want %v", cats, want)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Errorf("categories = %v, want %v", cats, want)
			break
		}
	}
}

func TestImageMetadata(t *testing.T) {
	s := setupTestStore(t)

	img := Image{
		Filename:     "user-1/1700000000_cat.jpg",
		OriginalName: "cat.png",
		Width:        800,
		Height:       600,
		Size:         12345,
		UserID:       "user-1",
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.SaveImage(img); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	got, err := s.GetImage(img.Filename)
	if err != nil {
		t.Fatalf("GetImage failed: %v", err)
	}
	if got.OriginalName != "cat.png" || got.Width != 800 || got.UserID != "user-1" {
		t.Errorf("got %+v", got)
	}

	list, err := s.ListImages()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListImages = %v, %v", list, err)
	}

	if err := s.DeleteImage(img.Filename); err != nil {
		t.Fatalf("DeleteImage failed: %v", err)
	}
	if _, err := s.GetImage(img.Filename); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestSubscriberDedupe(t *testing.T) {
	s := setupTestStore(t)

	if err := s.AddSubscriber("Reader@Example.com"); err != nil {
		t.Fatalf("AddSubscriber failed: %v", err)
	}
	// Same address, different casing and whitespace: silently deduped.
	if err := s.AddSubscriber("  reader@example.com "); err != nil {
		t.Fatalf("duplicate AddSubscriber should not error: %v", err)
	}
	if err := s.AddSubscriber("other@example.com"); err != nil {
		t.Fatalf("AddSubscriber failed: %v", err)
	}

	n, err := s.CountSubscribers()
	if err != nil {
		t.Fatalf("CountSubscribers failed: %v", err)
	}
	if n != 2 {
		t.Errorf("subscriber count = %d, want 2", n)
	}
}

func TestRebind(t *testing.T) {
	s := &Store{postgres: true}
	got := s.rebind(`INSERT INTO t (a, b) VALUES (?, ?)`)
	want := `INSERT INTO t (a, b) VALUES ($1, $2)`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}

	s.postgres = false
	if got := s.rebind(`SELECT ?`); got != `SELECT ?` {
		t.Errorf("sqlite rebind should be a no-op, got %q", got)
	}
}
