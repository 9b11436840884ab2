package inkwell

import (
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Trimmed  ", "trimmed"},
		{"Ethics & AI: 2026!", "ethics-ai-2026"},
		{"already-slugged", "already-slugged"},
		{"___", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"https://example.com", []string{"posts", "abc"}, "https://example.com/posts/abc/"},
		{"https://example.com/", []string{"articles"}, "https://example.com/articles/"},
		{"https://example.com", nil, "https://example.com"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "reader@example.com", "first.last@sub.example.org"}
	invalid := []string{"", "no-at-sign", "@example.com", "a@", "a@nodot", "two words@example.com"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

func TestRelatedPosts(t *testing.T) {
	current := Post{ID: "1", Category: "PRIVACY"}
	posts := []Post{
		{ID: "1", Category: "PRIVACY"},
		{ID: "2", Category: "PRIVACY"},
		{ID: "3", Category: "AI ETHICS"},
		{ID: "4", Category: "PRIVACY"},
	}
	related := RelatedPosts(current, posts)
	if len(related) != 2 || related[0].ID != "2" || related[1].ID != "4" {
		t.Errorf("RelatedPosts = %v", related)
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := SiteConfig{Name: "Test Blog", URL: "https://blog.example"}
	post := Post{
		ID:        "abc",
		Title:     "A Post",
		Category:  "PRIVACY",
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	got := BlogPostingJsonLD(post, "ada", cfg)
	for _, want := range []string{
		`"@type":"BlogPosting"`,
		`"headline":"A Post"`,
		`"datePublished":"2026-03-01"`,
		`"articleSection":"PRIVACY"`,
		`"name":"ada"`,
		`https://blog.example/posts/abc/`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON-LD missing %s:\n%s", want, got)
		}
	}
}
