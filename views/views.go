// Package views provides a plain default template set for inkwell. Sites
// that want their own look supply their own ViewFuncs; these components
// exist so the server binary works out of the box.
package views

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/calmsite/inkwell"
)

// Default returns a ViewFuncs set rendering minimal, unstyled pages.
func Default() inkwell.ViewFuncs {
	return inkwell.ViewFuncs{
		Home:        home,
		Articles:    articles,
		PostPage:    postPage,
		SignIn:      signIn,
		Dashboard:   dashboard,
		EditForm:    editForm,
		Profile:     profile,
		Images:      images,
		NotFound:    notFound,
		ServerError: serverError,
	}
}

func component(fn func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fn(w)
	})
}

func esc(s string) string { return html.EscapeString(s) }

func page(w io.Writer, title string, body func(w io.Writer) error) error {
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body>", esc(title))
	if err := body(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body></html>")
	return err
}

func postList(w io.Writer, posts []inkwell.Post) {
	io.WriteString(w, "<ul>")
	for _, p := range posts {
		fmt.Fprintf(w, `<li><a href="%s/">%s</a> <small>%s · %s</small></li>`,
			esc(p.Link()), esc(p.Title), esc(p.Category), esc(p.CreatedAt.Format("2006-01-02")))
	}
	io.WriteString(w, "</ul>")
}

func home(featured, recent []inkwell.Post, site inkwell.SiteConfig) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, site.Name, func(w io.Writer) error {
			fmt.Fprintf(w, "<h1>%s</h1><p>%s</p>", esc(site.Name), esc(site.Description))
			fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`, inkwell.WebsiteJsonLD(site))
			if len(featured) > 0 {
				io.WriteString(w, "<h2>Featured</h2>")
				postList(w, featured)
			}
			io.WriteString(w, "<h2>Latest</h2>")
			postList(w, recent)
			io.WriteString(w, `<p><a href="/articles/">All articles</a></p>`)
			return nil
		})
	})
}

func articles(posts []inkwell.Post, categories []string, active string, site inkwell.SiteConfig) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Articles - "+site.Name, func(w io.Writer) error {
			io.WriteString(w, "<h1>Articles</h1><nav>")
			fmt.Fprintf(w, `<a href="/articles/">all</a> `)
			for _, cat := range categories {
				cls := ""
				if cat == active {
					cls = ` class="active"`
				}
				fmt.Fprintf(w, `<a href="/articles/?category=%s"%s>%s</a> `, esc(cat), cls, esc(cat))
			}
			io.WriteString(w, "</nav>")
			postList(w, posts)
			return nil
		})
	})
}

func postPage(post inkwell.Post, author inkwell.User, related []inkwell.Post, site inkwell.SiteConfig) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, post.Title+" - "+site.Name, func(w io.Writer) error {
			fmt.Fprintf(w, "<article><h1>%s</h1>", esc(post.Title))
			fmt.Fprintf(w, "<p><small>%s · %s · %s</small></p>",
				esc(post.Category), esc(author.Username), esc(post.CreatedAt.Format("2006-01-02")))
			if post.Image != "" {
				fmt.Fprintf(w, `<img src="%s" alt=""/>`, esc(post.Image))
			}
			// Content is sanitized at save time; written through verbatim.
			io.WriteString(w, post.Content)
			if len(post.Sources) > 0 {
				io.WriteString(w, "<h3>Sources</h3><ul>")
				for _, src := range post.Sources {
					fmt.Fprintf(w, `<li><a href="%s" rel="noopener noreferrer">%s</a></li>`, esc(src), esc(src))
				}
				io.WriteString(w, "</ul>")
			}
			fmt.Fprintf(w, `<script type="application/ld+json">%s</script>`,
				inkwell.BlogPostingJsonLD(post, author.Username, site))
			io.WriteString(w, "</article>")
			if len(related) > 0 {
				io.WriteString(w, "<h2>Related</h2>")
				postList(w, related)
			}
			return nil
		})
	})
}

func signIn(showError bool, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Sign in", func(w io.Writer) error {
			io.WriteString(w, "<h1>Sign in</h1>")
			if showError {
				io.WriteString(w, "<p>Invalid username or password.</p>")
			}
			fmt.Fprintf(w, `<form method="post" action="/auth/login/">`+
				`<input type="hidden" name="_csrf" value="%s"/>`+
				`<input name="username" placeholder="Username"/>`+
				`<input type="password" name="password" placeholder="Password"/>`+
				`<button type="submit">Sign in</button></form>`, esc(csrfToken))
			return nil
		})
	})
}

func dashboard(actor inkwell.Identity, posts []inkwell.Post, message, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Dashboard", func(w io.Writer) error {
			fmt.Fprintf(w, "<h1>Dashboard</h1><p>Signed in as %s (%s)</p>", esc(actor.Username), esc(string(actor.Role)))
			if message != "" {
				fmt.Fprintf(w, "<p><em>%s</em></p>", esc(message))
			}
			if actor.IsSuperAdmin() {
				io.WriteString(w, "<h2>Approval queue</h2><ul>")
				for _, p := range posts {
					if p.Status != inkwell.StatusPendingApproval {
						continue
					}
					fmt.Fprintf(w, `<li>%s <form method="post" action="/admin/approve/%s/" style="display:inline">`+
						`<input type="hidden" name="_csrf" value="%s"/><button>Approve</button></form></li>`,
						esc(p.Title), esc(p.ID), esc(csrfToken))
				}
				io.WriteString(w, "</ul>")
			}
			io.WriteString(w, "<h2>All posts</h2><table><tr><th>Title</th><th>Status</th><th>Category</th></tr>")
			for _, p := range posts {
				fmt.Fprintf(w, `<tr><td><a href="/admin/post/%s/">%s</a></td><td>%s</td><td>%s</td></tr>`,
					esc(p.ID), esc(p.Title), esc(string(p.Status)), esc(p.Category))
			}
			io.WriteString(w, "</table>")
			return nil
		})
	})
}

func editForm(post inkwell.Post, categories []string, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Edit post", func(w io.Writer) error {
			fmt.Fprintf(w, `<form method="post" action="/admin/save/">`+
				`<input type="hidden" name="_csrf" value="%s"/>`+
				`<input type="hidden" name="id" value="%s"/>`+
				`<input name="title" value="%s"/>`, esc(csrfToken), esc(post.ID), esc(post.Title))
			io.WriteString(w, `<select name="category">`)
			for _, cat := range categories {
				sel := ""
				if cat == post.Category {
					sel = " selected"
				}
				fmt.Fprintf(w, `<option%s>%s</option>`, sel, esc(cat))
			}
			io.WriteString(w, "</select>")
			fmt.Fprintf(w, `<textarea name="content">%s</textarea>`, esc(post.Content))
			fmt.Fprintf(w, `<input name="image" value="%s"/>`, esc(post.Image))
			featured := ""
			if post.Featured {
				featured = " checked"
			}
			fmt.Fprintf(w, `<label><input type="checkbox" name="featured"%s/> Featured</label>`, featured)
			io.WriteString(w, `<label><input type="checkbox" name="publish"/> Publish</label>`)
			io.WriteString(w, `<button type="submit">Save</button></form>`)
			return nil
		})
	})
}

func profile(user inkwell.User, message, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Profile", func(w io.Writer) error {
			fmt.Fprintf(w, "<h1>%s</h1>", esc(user.Username))
			if message != "" {
				fmt.Fprintf(w, "<p><em>%s</em></p>", esc(message))
			}
			if user.AvatarURL != "" {
				fmt.Fprintf(w, `<img src="%s" alt="avatar"/>`, esc(user.AvatarURL))
			}
			fmt.Fprintf(w, `<form method="post" action="/admin/profile/">`+
				`<input type="hidden" name="_csrf" value="%s"/>`+
				`<textarea name="bio">%s</textarea>`+
				`<input name="avatar_url" value="%s"/>`+
				`<button type="submit">Save Profile</button></form>`,
				esc(csrfToken), esc(user.Bio), esc(user.AvatarURL))
			return nil
		})
	})
}

func images(imgs []inkwell.Image, csrfToken string) templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Images", func(w io.Writer) error {
			io.WriteString(w, "<h1>Images</h1>")
			fmt.Fprintf(w, `<form method="post" action="/admin/images/upload/" enctype="multipart/form-data">`+
				`<input type="hidden" name="_csrf" value="%s"/>`+
				`<input type="file" name="image"/><button>Upload</button></form><ul>`, esc(csrfToken))
			for _, img := range imgs {
				fmt.Fprintf(w, `<li><a href="%s">%s</a> (%dx%d, %d bytes)</li>`,
					esc(inkwell.PublicImageURL(img.Filename)), esc(img.OriginalName), img.Width, img.Height, img.Size)
			}
			io.WriteString(w, "</ul>")
			return nil
		})
	})
}

func notFound() templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Not found", func(w io.Writer) error {
			_, err := io.WriteString(w, "<h1>404</h1><p>Page not found.</p>")
			return err
		})
	})
}

func serverError() templ.Component {
	return component(func(w io.Writer) error {
		return page(w, "Server error", func(w io.Writer) error {
			_, err := io.WriteString(w, "<h1>500</h1><p>Something went wrong.</p>")
			return err
		})
	})
}
