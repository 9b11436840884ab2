package inkwell

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/calmsite/inkwell/auth"
)

func newSessionTestApp(t *testing.T, ttl time.Duration) *App {
	t.Helper()
	cfg := SiteConfig{
		SessionSecret: "test-secret-not-for-production",
		SessionTTL:    ttl,
	}
	cfg.setDefaults()
	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Store:  setupTestStore(t),
	}
	a.sessionStore = a.newSessionStore()
	a.Echo.Use(session.Middleware(a.sessionStore))
	return a
}

func createTestUser(t *testing.T, a *App, username, password string, role Role) User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role, PasswordHash: hash}
	if err := a.Store.CreateUser(u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

// doLogin runs a login attempt through the session middleware and returns
// the recorder plus the login error.
func doLogin(a *App, username, password string) (*httptest.ResponseRecorder, error) {
	var loginErr error
	a.Echo.POST("/login-test/", func(c echo.Context) error {
		loginErr = a.Login(c, username, password)
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/login-test/", nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec, loginErr
}

func identityFor(a *App, cookies []*http.Cookie) *Identity {
	var got *Identity
	a.Echo.GET("/whoami-test/", func(c echo.Context) error {
		got = CurrentIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/whoami-test/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return got
}

func TestLoginRoundTrip(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)
	u := createTestUser(t, a, "ada", "correct horse battery", RoleAuthor)

	rec, err := doLogin(a, "ada", "correct horse battery")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	got := identityFor(a, cookies)
	if got == nil {
		t.Fatal("CurrentIdentity returned nil for a fresh session")
	}
	if got.ID != u.ID || got.Username != "ada" || got.Role != RoleAuthor {
		t.Errorf("identity = %+v, want user %s", got, u.ID)
	}
}

func TestLoginRejections(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)
	createTestUser(t, a, "ada", "correct horse battery", RoleAuthor)

	if _, err := doLogin(a, "ada", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	// Unknown usernames come back as the same error; nothing distinguishes
	// "no such user" from "bad password".
	if _, err := doLogin(a, "nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCurrentIdentityWithoutCookie(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)
	if got := identityFor(a, nil); got != nil {
		t.Errorf("expected nil identity without a cookie, got %+v", got)
	}
}

func TestCurrentIdentityTamperedCookie(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)
	garbage := &http.Cookie{Name: sessionName, Value: "bm90LWEtcmVhbC1zZXNzaW9u"}
	if got := identityFor(a, []*http.Cookie{garbage}); got != nil {
		t.Errorf("expected nil identity for a tampered cookie, got %+v", got)
	}
}

func TestCurrentIdentityWrongSecret(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)
	createTestUser(t, a, "ada", "pw12345678", RoleAuthor)
	rec, err := doLogin(a, "ada", "pw12345678")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// A cookie minted under one secret is rejected under another.
	cfg := a.Config
	cfg.SessionSecret = "a-different-secret-entirely"
	other := &App{Config: cfg, Echo: echo.New(), Store: a.Store}
	other.sessionStore = other.newSessionStore()
	other.Echo.Use(session.Middleware(other.sessionStore))

	if got := identityFor(other, rec.Result().Cookies()); got != nil {
		t.Errorf("expected nil identity under a different secret, got %+v", got)
	}
}

func TestSessionExpiry(t *testing.T) {
	a := newSessionTestApp(t, time.Second)
	createTestUser(t, a, "ada", "pw12345678", RoleAuthor)
	rec, err := doLogin(a, "ada", "pw12345678")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	cookies := rec.Result().Cookies()

	if got := identityFor(a, cookies); got == nil {
		t.Fatal("session should be valid immediately after login")
	}

	time.Sleep(1500 * time.Millisecond)

	if got := identityFor(a, cookies); got != nil {
		t.Errorf("expected nil identity after TTL elapsed, got %+v", got)
	}
}

func TestLogout(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)
	createTestUser(t, a, "ada", "pw12345678", RoleAuthor)
	rec, err := doLogin(a, "ada", "pw12345678")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	cookies := rec.Result().Cookies()

	a.Echo.POST("/logout-test/", func(c echo.Context) error {
		if err := a.Logout(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/logout-test/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	out := httptest.NewRecorder()
	a.Echo.ServeHTTP(out, req)

	var cleared *http.Cookie
	for _, ck := range out.Result().Cookies() {
		if ck.Name == sessionName {
			cleared = ck
		}
	}
	if cleared == nil {
		t.Fatal("logout did not rewrite the session cookie")
	}
	if cleared.MaxAge >= 0 {
		t.Errorf("logout cookie MaxAge = %d, want negative", cleared.MaxAge)
	}
}

func TestLogoutClearsMalformedCookie(t *testing.T) {
	a := newSessionTestApp(t, time.Hour)

	a.Echo.POST("/logout-test/", func(c echo.Context) error {
		if err := a.Logout(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/logout-test/", nil)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "bm90LWEtcmVhbC1zZXNzaW9u"})
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	// A cookie that fails verification still gets overwritten with an
	// expiring one, so the garbage does not survive the logout.
	var cleared *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionName {
			cleared = ck
		}
	}
	if cleared == nil {
		t.Fatal("logout with a malformed cookie did not rewrite it")
	}
	if cleared.MaxAge >= 0 {
		t.Errorf("logout cookie MaxAge = %d, want negative", cleared.MaxAge)
	}
}
