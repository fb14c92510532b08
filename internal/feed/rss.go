package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/sanitizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
)

const (
	atomNS    = "http://www.w3.org/2005/Atom"
	contentNS = "http://purl.org/rss/1.0/modules/content/"
)

type rssDocument struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	AtomNS    string     `xml:"xmlns:atom,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	GUID        rssGUID       `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Description string        `xml:"description"`
	Content     cdata         `xml:"content:encoded"`
	Author      string        `xml:"author,omitempty"`
	Categories  []string      `xml:"category"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// RSS renders the feed of the latest posts in the default language.
// Settings and posts are fetched concurrently; noIndex posts are left out.
// When no posts can be read the channel is emitted without items. A ctx that
// ends during the fetch fails the feed instead of emitting a degraded one.
func (g *Generator) RSS(ctx context.Context) ([]byte, error) {
	lang := g.cfg.DefaultLanguage

	var (
		site  content.Settings
		posts content.Page[content.Post]
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		site = g.settings.Get(egCtx)
		return egCtx.Err()
	})
	eg.Go(func() error {
		posts = g.posts.GetPosts(egCtx, content.PostQuery{Lang: lang, Page: 1, Limit: g.cfg.RSSLimit})
		return egCtx.Err()
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%w: rss feed: %v", apperrors.ErrTimeout, err)
	}

	doc := rssDocument{
		Version:   "2.0",
		AtomNS:    atomNS,
		ContentNS: contentNS,
		Channel: rssChannel{
			Title:         site.SiteName,
			Link:          content.LanguageURL(g.cfg.SiteURL, lang, ""),
			Description:   site.SiteDescription,
			Language:      string(lang),
			LastBuildDate: g.now().UTC().Format(time.RFC1123Z),
			AtomLink: atomLink{
				Href: g.cfg.SiteURL + "/rss.xml",
				Rel:  "self",
				Type: "application/rss+xml",
			},
		},
	}
	for _, post := range posts.Data {
		if post.NoIndex {
			continue
		}
		doc.Channel.Items = append(doc.Channel.Items, g.rssItem(post))
	}

	g.record("rss", len(posts.Data) == 0)
	if len(posts.Data) == 0 {
		logger.FromContext(ctx).Warn("rss feed has no posts", "component", "feed", "lang", lang)
	}
	return marshal(doc)
}

func (g *Generator) rssItem(post content.Post) rssItem {
	link := content.PostURL(g.cfg.SiteURL, post.Lang, post.Slug)
	body := post.Excerpt
	if post.BodyMarkdown != "" {
		body = post.BodyMarkdown
	}
	item := rssItem{
		Title:       post.Title,
		Link:        link,
		GUID:        rssGUID{IsPermaLink: true, Value: link},
		PubDate:     post.PublishedAt.UTC().Format(time.RFC1123Z),
		Description: sanitizer.StripHTML(post.Excerpt),
		Content:     cdata{Value: g.renderer.MustRender(body)},
		Author:      post.AuthorName,
	}
	for _, c := range post.Categories {
		item.Categories = append(item.Categories, c.Name)
	}
	if post.CoverImageURL != "" {
		item.Enclosure = &rssEnclosure{URL: post.CoverImageURL, Type: "image/jpeg"}
	}
	return item
}

func marshal(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding xml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
