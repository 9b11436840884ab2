// Package sanitize cleans rich-text editor HTML down to an allow-list of
// formatting tags before it is stored. Everything else is stripped: scripts,
// event handlers, inline styles, and unknown elements (their text survives).
// Video iframes are the one extension: an <iframe> is kept when its src
// points at a configured embed host.
package sanitize

import (
	"html"
	"net/url"
	"strings"

	xhtml "golang.org/x/net/html"
)

// allowedAttrs maps each permitted tag to the attributes it may carry.
// A tag missing from this map is dropped (content preserved).
var allowedAttrs = map[string][]string{
	"p": nil, "br": nil, "hr": nil,
	"b": nil, "strong": nil, "i": nil, "em": nil, "u": nil, "s": nil,
	"h1": nil, "h2": nil, "h3": nil, "h4": nil,
	"ul": nil, "ol": nil, "li": nil,
	"blockquote": nil, "pre": nil, "code": nil,
	"a":      {"href"},
	"img":    {"src", "alt", "width", "height"},
	"iframe": {"src", "width", "height", "frameborder", "allowfullscreen"},
}

// voidTags never take a closing tag.
var voidTags = map[string]bool{"br": true, "hr": true, "img": true}

// rawTextTags have their entire content discarded, not just the tags.
var rawTextTags = map[string]bool{"script": true, "style": true, "iframe": true, "title": true, "textarea": true}

// Policy holds the per-site sanitizer configuration.
type Policy struct {
	embedHosts map[string]bool
}

// NewPolicy returns a Policy that additionally allows <iframe> embeds from
// the given hosts.
func NewPolicy(embedHosts []string) *Policy {
	hosts := make(map[string]bool, len(embedHosts))
	for _, h := range embedHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return &Policy{embedHosts: hosts}
}

// Sanitize returns a cleaned copy of raw. The output contains only
// allow-listed tags and attributes; text content is re-escaped. Safe to
// call on a nil policy, which behaves like a policy with no embed hosts.
func (p *Policy) Sanitize(raw string) string {
	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(raw))
	var skip string // raw-text tag whose content is being discarded

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return b.String()
		}
		tok := z.Token()

		if skip != "" {
			if tt == xhtml.EndTagToken && tok.Data == skip {
				skip = ""
			}
			continue
		}

		switch tt {
		case xhtml.TextToken:
			b.WriteString(html.EscapeString(tok.Data))
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name := tok.Data
			if name == "iframe" {
				if p.allowEmbed(tok.Attr) {
					p.writeTag(&b, name, tok.Attr)
					b.WriteString("</iframe>")
				}
				if tt == xhtml.StartTagToken {
					skip = name
				}
				continue
			}
			if !isAllowed(name) {
				if rawTextTags[name] && tt == xhtml.StartTagToken {
					skip = name
				}
				continue
			}
			p.writeTag(&b, name, tok.Attr)
		case xhtml.EndTagToken:
			if isAllowed(tok.Data) && tok.Data != "iframe" && !voidTags[tok.Data] {
				b.WriteString("</" + tok.Data + ">")
			}
		}
	}
}

func isAllowed(tag string) bool {
	_, ok := allowedAttrs[tag]
	return ok
}

func (p *Policy) writeTag(b *strings.Builder, name string, attrs []xhtml.Attribute) {
	b.WriteString("<" + name)
	for _, want := range allowedAttrs[name] {
		for _, a := range attrs {
			if a.Key != want {
				continue
			}
			val := a.Val
			if want == "href" || want == "src" {
				if name == "iframe" {
					val = p.embedURL(val)
				} else {
					val = SafeURL(val)
				}
				if val == "" {
					continue
				}
			}
			b.WriteString(` ` + want + `="` + html.EscapeString(val) + `"`)
		}
	}
	if voidTags[name] {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
}

// allowEmbed reports whether the iframe's src points at an allow-listed host.
func (p *Policy) allowEmbed(attrs []xhtml.Attribute) bool {
	for _, a := range attrs {
		if a.Key == "src" {
			return p.embedURL(a.Val) != ""
		}
	}
	return false
}

// embedURL validates an iframe src: https only, host on the allow list.
func (p *Policy) embedURL(raw string) string {
	if p == nil {
		return ""
	}
	val := strings.TrimSpace(raw)
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme != "https" {
		return ""
	}
	if !p.embedHosts[strings.ToLower(parsed.Host)] {
		return ""
	}
	return val
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
// Relative paths and fragments pass through; absolute URLs must carry an
// http, https, mailto, or tel scheme.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}
