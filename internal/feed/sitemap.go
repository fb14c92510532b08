package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap lists the home page and blog index of every language followed by
// every indexable post. If posts cannot be enumerated only the per-language
// entries remain.
func (g *Generator) Sitemap(ctx context.Context) ([]byte, error) {
	set := urlset{XMLNS: sitemapNS}
	for _, lang := range content.Languages {
		set.URLs = append(set.URLs,
			sitemapURL{
				Loc:        content.LanguageURL(g.cfg.SiteURL, lang, ""),
				ChangeFreq: "daily",
				Priority:   "1.0",
			},
			sitemapURL{
				Loc:        content.LanguageURL(g.cfg.SiteURL, lang, "blog"),
				ChangeFreq: "daily",
				Priority:   "0.9",
			},
		)
	}

	posts := g.posts.GetAllPostsForSitemap(ctx)
	for _, post := range posts {
		if post.NoIndex {
			continue
		}
		entry := sitemapURL{
			Loc:        content.PostURL(g.cfg.SiteURL, post.Lang, post.Slug),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		switch {
		case !post.UpdatedAt.IsZero():
			entry.LastMod = post.UpdatedAt.UTC().Format("2006-01-02")
		case !post.PublishedAt.IsZero():
			entry.LastMod = post.PublishedAt.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, entry)
	}

	g.record("sitemap", len(posts) == 0)
	g.logger.Debug("sitemap generated", "entries", len(set.URLs), "posts", len(posts))
	return marshal(set)
}

// Robots renders robots.txt: everything is crawlable except search pages and
// the JSON API, and the sitemap is advertised.
func (g *Generator) Robots() []byte {
	var b strings.Builder
	b.WriteString("# https://www.robotstxt.org/robotstxt.html\n")
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n\n")
	b.WriteString("# Sitemaps\n")
	fmt.Fprintf(&b, "Sitemap: %s/sitemap.xml\n\n", g.cfg.SiteURL)
	b.WriteString("# Disallow search and other dynamic pages\n")
	b.WriteString("Disallow: /*/search\n")
	b.WriteString("Disallow: /api/\n")
	return []byte(b.String())
}
