package inkwell

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleSignIn(c echo.Context) error {
	if CurrentIdentity(c) != nil {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return Render(c, a.Views.SignIn(false, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	err := a.Login(c, username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		return Render(c, a.Views.SignIn(true, CsrfToken(c)))
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Logout(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/auth/signin/")
}

func (a *App) handleDashboard(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	return a.renderDashboard(c, *actor, c.QueryParam("msg"))
}

func (a *App) handleEditForm(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	post, err := a.Store.GetPost(c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return c.NoContent(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	return Render(c, a.Views.EditForm(post, a.Config.Categories, CsrfToken(c)))
}

// handleSave creates or updates a post. The publish checkbox is only an
// intent: the lifecycle controller decides whether it lands in draft,
// pending_approval, or published based on the actor's role.
func (a *App) handleSave(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	in := PostInput{
		Title:    c.FormValue("title"),
		Content:  c.FormValue("content"),
		Category: c.FormValue("category"),
		Featured: c.FormValue("featured") != "",
		Image:    c.FormValue("image"),
		Sources:  FilterEmpty(strings.Split(c.FormValue("sources"), "\n")),
	}
	publish := c.FormValue("publish") != ""

	var err error
	if id := c.FormValue("id"); id != "" {
		_, err = a.Lifecycle.Update(actor, id, in, publish)
	} else {
		_, err = a.Lifecycle.Create(actor, in, publish)
	}
	if err != nil {
		return a.lifecycleError(c, *actor, err)
	}
	a.Cache.Invalidate()
	return a.renderDashboard(c, *actor, "saved")
}

func (a *App) handleSubmit(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	if _, err := a.Lifecycle.SubmitForApproval(actor, c.Param("id")); err != nil {
		return a.lifecycleError(c, *actor, err)
	}
	a.Cache.Invalidate()
	return a.renderDashboard(c, *actor, "submitted for approval")
}

func (a *App) handleApprove(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	if _, err := a.Lifecycle.Approve(actor, c.Param("id")); err != nil {
		return a.lifecycleError(c, *actor, err)
	}
	a.Cache.Invalidate()
	return a.renderDashboard(c, *actor, "published")
}

func (a *App) handleDelete(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	if err := a.Lifecycle.Delete(actor, c.Param("id")); err != nil {
		return a.lifecycleError(c, *actor, err)
	}
	a.Cache.Invalidate()
	return a.renderDashboard(c, *actor, "deleted")
}

func (a *App) handleProfile(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	user, err := a.Store.GetUser(actor.ID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Profile(user, c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleProfileSave(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	bio := c.FormValue("bio")
	avatarURL := c.FormValue("avatar_url")
	if err := a.Store.UpdateProfile(actor.ID, bio, avatarURL); err != nil {
		return err
	}
	user, err := a.Store.GetUser(actor.ID)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Profile(user, "profile saved", CsrfToken(c)))
}

// lifecycleError maps controller errors onto responses: validation problems
// bounce back to the dashboard with a message, authorization failures get a
// 403, unknown posts a 404.
func (a *App) lifecycleError(c echo.Context, actor Identity, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(err.Error()))
	case errors.Is(err, ErrAccessDenied):
		return c.String(http.StatusForbidden, "Access denied")
	case errors.Is(err, ErrNotFound):
		return c.NoContent(http.StatusNotFound)
	default:
		return err
	}
}

func (a *App) renderDashboard(c echo.Context, actor Identity, msg string) error {
	posts, err := a.Store.ListAll()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Dashboard(actor, posts, msg, CsrfToken(c)))
}
