package inkwell

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	featured, err := a.Cache.ListFeatured()
	if err != nil {
		return err
	}
	recent, err := a.Cache.ListPublished("")
	if err != nil {
		return err
	}
	if len(recent) > 6 {
		recent = recent[:6]
	}
	return Render(c, a.Views.Home(featured, recent, a.Config))
}

func (a *App) handleArticles(c echo.Context) error {
	category := c.QueryParam("category")
	posts, err := a.Cache.ListPublished(category)
	if err != nil {
		return err
	}
	categories, err := a.Cache.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Articles(posts, categories, category, a.Config))
}

func (a *App) handlePost(c echo.Context) error {
	id := c.Param("id")
	post, err := a.Cache.GetPublished(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return a.renderPostPage(c, post)
}

// handlePreview shows a post in any status to its owner or a super-admin;
// everyone else gets the same 404 an unknown id would.
func (a *App) handlePreview(c echo.Context) error {
	id := c.Param("id")
	post, err := a.Store.GetPost(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	if !CanView(CurrentIdentity(c), post) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	return a.renderPostPage(c, post)
}

func (a *App) renderPostPage(c echo.Context, post Post) error {
	author, err := a.Store.GetUser(post.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	published, err := a.Cache.ListPublished("")
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostPage(post, author, RelatedPosts(post, published), a.Config))
}

func (a *App) handleSubscribe(c echo.Context) error {
	email := c.FormValue("email")
	if !ValidEmail(email) {
		return c.String(http.StatusBadRequest, "A valid email address is required")
	}
	if err := a.Store.AddSubscriber(email); err != nil {
		return err
	}
	return c.String(http.StatusOK, "Subscribed")
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPublished("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPublished("")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
