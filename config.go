package inkwell

import "time"

// SiteConfig holds all configuration for an inkwell site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Publisher name for JSON-LD

	Addr string // Listen address (default ":3000")

	DatabaseDriver string // "sqlite" (default) or "postgres"
	DatabaseDSN    string // SQLite path or Postgres DSN (default "data/blog.db")

	SessionSecret string        // Required: session signing secret
	SessionTTL    time.Duration // Session lifetime (default 8h)
	CookieSecure  bool          // Set true for HTTPS

	// Bootstrap account created on first start if no user exists.
	AdminUsername string // Required
	AdminPassword string // Required

	Categories      []string // Allowed post categories
	VideoEmbedHosts []string // Hosts allowed in sanitized <iframe> embeds

	PostCacheTTL time.Duration // Published-post cache TTL (default 5min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "sqlite"
	}
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = "data/blog.db"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 8 * time.Hour
	}
	if len(c.Categories) == 0 {
		c.Categories = []string{
			"AI ETHICS", "CYBERSECURITY", "THREAT ANALYSIS",
			"PRIVACY", "MACHINE LEARNING", "DIGITAL RIGHTS", "TECH POLICY",
		}
	}
	if len(c.VideoEmbedHosts) == 0 {
		c.VideoEmbedHosts = []string{"www.youtube.com", "www.youtube-nocookie.com", "player.vimeo.com"}
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
