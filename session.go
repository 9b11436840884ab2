package inkwell

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/calmsite/inkwell/auth"
)

// Session cookie name. The cookie holds an HMAC-signed, timestamped payload
// carrying the user id, username, and role; gorilla/securecookie rejects it
// once it is older than the configured TTL.
const sessionName = "session"

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	// The TTL must go through the setter: it propagates into the
	// securecookie codecs, which otherwise keep verifying replayed
	// payloads against their default 30-day window.
	store.MaxAge(int(a.Config.SessionTTL.Seconds()))
	return store
}

// Login authenticates the credentials against the users table and, on
// success, writes the session cookie. Unknown usernames and wrong passwords
// both come back as ErrInvalidCredentials; a dummy hash is verified for
// unknown usernames so the two cases take comparable time.
func (a *App) Login(c echo.Context, username, password string) error {
	u, err := a.Store.GetUserByUsername(username)
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = auth.VerifyPassword(password, auth.DummyHash)
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	sess, err := session.Get(sessionName, c)
	if err != nil {
		// A stale or tampered cookie from a previous secret still decodes
		// to a fresh session here; Get only errors on store misuse.
		sess, _ = a.sessionStore.New(c.Request(), sessionName)
	}
	sess.Values["uid"] = u.ID
	sess.Values["username"] = u.Username
	sess.Values["role"] = string(u.Role)
	return sess.Save(c.Request(), c.Response())
}

// Logout overwrites the session cookie with an immediately expiring one.
// It clears unconditionally: a malformed cookie that fails verification is
// replaced with the expiring one all the same.
func (a *App) Logout(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		sess, _ = a.sessionStore.New(c.Request(), sessionName)
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CurrentIdentity verifies and decodes the session cookie. Missing,
// malformed, tampered, and expired cookies all come back as nil; the
// caller treats nil as "unauthenticated", never as an error.
func CurrentIdentity(c echo.Context) *Identity {
	sess, err := session.Get(sessionName, c)
	if err != nil || sess.IsNew {
		return nil
	}
	uid, ok := sess.Values["uid"].(string)
	if !ok || uid == "" {
		return nil
	}
	username, _ := sess.Values["username"].(string)
	role, _ := sess.Values["role"].(string)
	return &Identity{ID: uid, Username: username, Role: Role(role)}
}
