// Package inkwell is a blog content-management engine built with Go, Echo,
// and templ. It provides public article browsing, an author dashboard with a
// role-gated approval workflow (draft -> pending approval -> published),
// session authentication, and image hosting out of the box.
//
// Users provide their own templ components via the ViewFuncs struct, and
// inkwell handles the handler logic, middleware, and database operations.
package inkwell

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/calmsite/inkwell/auth"
	"github.com/calmsite/inkwell/sanitize"
)

// ViewFuncs holds user-provided templ components that the engine calls when
// rendering pages. This is the inversion-of-control mechanism that lets
// users own and customize all templates.
type ViewFuncs struct {
	Home        func(featured, recent []Post, site SiteConfig) templ.Component
	Articles    func(posts []Post, categories []string, active string, site SiteConfig) templ.Component
	PostPage    func(post Post, author User, related []Post, site SiteConfig) templ.Component
	SignIn      func(showError bool, csrfToken string) templ.Component
	Dashboard   func(actor Identity, posts []Post, message, csrfToken string) templ.Component
	EditForm    func(post Post, categories []string, csrfToken string) templ.Component
	Profile     func(user User, message, csrfToken string) templ.Component
	Images      func(images []Image, csrfToken string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central inkwell application. It wires together the store, the
// lifecycle controller, the session manager, and user-provided templates.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *PostCache
	Lifecycle *Lifecycle
	Views     ViewFuncs

	sessionStore *sessions.CookieStore
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new inkwell App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, seeds the bootstrap account, registers
// middleware and routes, and starts the server.
func (a *App) Start() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("inkwell: SessionSecret is required")
	}
	if a.Config.AdminUsername == "" || a.Config.AdminPassword == "" {
		return fmt.Errorf("inkwell: AdminUsername and AdminPassword are required")
	}

	store, err := NewStore(a.Config.DatabaseDriver, a.Config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("inkwell: init store: %w", err)
	}
	a.Store = store

	if err := a.seedSuperAdmin(); err != nil {
		return fmt.Errorf("inkwell: seed admin: %w", err)
	}

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.Lifecycle = NewLifecycle(a.Store, sanitize.NewPolicy(a.Config.VideoEmbedHosts))
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.sessionStore = a.newSessionStore()

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// seedSuperAdmin creates the configured super-admin account on an empty
// users table, so a fresh install has exactly one way in.
func (a *App) seedSuperAdmin() error {
	n, err := a.Store.CountUsers()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := auth.HashPassword(a.Config.AdminPassword)
	if err != nil {
		return err
	}
	return a.Store.CreateUser(User{
		ID:           uuid.NewString(),
		Username:     a.Config.AdminUsername,
		Role:         RoleSuperAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets and uploads
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/articles/", a.handleArticles)
	e.GET("/posts/:id/", a.handlePost)
	e.GET("/posts/preview/:id/", a.handlePreview)
	e.POST("/subscribe/", a.handleSubscribe)

	// Auth routes
	e.GET("/auth/signin/", a.handleSignIn)
	e.POST("/auth/login/", a.handleLogin)
	e.POST("/auth/logout/", a.handleLogout)

	// Dashboard routes
	e.GET("/admin/", a.handleDashboard)
	e.GET("/admin/post/:id/", a.handleEditForm)
	e.POST("/admin/save/", a.handleSave)
	e.POST("/admin/submit/:id/", a.handleSubmit)
	e.POST("/admin/approve/:id/", a.handleApprove)
	e.DELETE("/admin/post/:id/", a.handleDelete)
	e.GET("/admin/profile/", a.handleProfile)
	e.POST("/admin/profile/", a.handleProfileSave)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	// Wildcard because filenames are keyed {userID}/{timestamp}_{name}.jpg.
	e.DELETE("/admin/images/*", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("inkwell: required environment variable %s is not set", key)
	}
	return v
}
