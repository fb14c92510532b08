package content

import (
	"strings"
	"time"
)

// Language is one of the site's supported content languages.
type Language string

const (
	Turkish Language = "tr"
	English Language = "en"
	German  Language = "de"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = Turkish

// Languages lists every supported language in site order.
var Languages = []Language{Turkish, English, German}

var languageNames = map[Language]string{
	Turkish: "Türkçe",
	English: "English",
	German:  "Deutsch",
}

// ParseLanguage validates s against the supported set.
func ParseLanguage(s string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := languageNames[lang]; !ok {
		return "", false
	}
	return lang, true
}

// Name returns the language's display name in its own language.
func (l Language) Name() string {
	return languageNames[l]
}

func (l Language) String() string {
	return string(l)
}

// Post is a blog post as served by the content API.
type Post struct {
	ID             string      `json:"id"`
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Excerpt        string      `json:"excerpt"`
	BodyMarkdown   string      `json:"bodyMarkdown"`
	CoverImageURL  string      `json:"coverImageUrl,omitempty"`
	AuthorName     string      `json:"authorName"`
	AuthorAvatar   string      `json:"authorAvatar,omitempty"`
	PublishedAt    time.Time   `json:"publishedAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Lang           Language    `json:"lang"`
	Tags           []Tag       `json:"tags"`
	Categories     []Category  `json:"categories"`
	CanonicalURL   string      `json:"canonicalUrl,omitempty"`
	NoIndex        bool        `json:"noIndex,omitempty"`
	Featured       bool        `json:"featured,omitempty"`
	Blocks         *PostBlocks `json:"blocks,omitempty"`
	SEOTitle       string      `json:"seoTitle,omitempty"`
	SEODescription string      `json:"seoDescription,omitempty"`
	OGImageURL     string      `json:"ogImageUrl,omitempty"`
}

// PostBlocks are optional structured sections rendered around the body.
type PostBlocks struct {
	CTA           *CTABlock      `json:"cta,omitempty"`
	RelatedLinks  []RelatedLink  `json:"relatedLinks,omitempty"`
	RedirectLinks []RedirectLink `json:"redirectLinks,omitempty"`
}

type CTABlock struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ButtonText  string `json:"buttonText"`
	ButtonURL   string `json:"buttonUrl"`
	Style       string `json:"style,omitempty"`
}

type RelatedLink struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type RedirectLink struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Tag is a free-form label attached to posts.
type Tag struct {
	ID   string   `json:"id,omitempty"`
	Slug string   `json:"slug"`
	Name string   `json:"name"`
	Lang Language `json:"lang,omitempty"`
}

// Key identifies the tag for comparison: its ID when present, else its slug.
func (t Tag) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Slug
}

// Category is an editorial grouping of posts.
type Category struct {
	ID          string   `json:"id,omitempty"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Lang        Language `json:"lang,omitempty"`
}

// Key identifies the category for comparison: its ID when present, else its
// slug.
func (c Category) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Slug
}

// Settings is the site-wide configuration managed in the CMS.
type Settings struct {
	SiteName              string           `json:"siteName"`
	SiteDescription       string           `json:"siteDescription"`
	LogoURL               string           `json:"logoUrl,omitempty"`
	FaviconURL            string           `json:"faviconUrl,omitempty"`
	OGImageURL            string           `json:"ogImageUrl,omitempty"`
	Navigation            []NavigationItem `json:"navigation"`
	FooterLinks           []FooterSection  `json:"footerLinks"`
	FooterText            string           `json:"footerText,omitempty"`
	SocialLinks           []SocialLink     `json:"socialLinks"`
	SEOTitle              string           `json:"seoTitle,omitempty"`
	SEODescription        string           `json:"seoDescription,omitempty"`
	TwitterHandle         string           `json:"twitterHandle,omitempty"`
	EnableNewsletter      bool             `json:"enableNewsletter,omitempty"`
	NewsletterTitle       string           `json:"newsletterTitle,omitempty"`
	NewsletterDescription string           `json:"newsletterDescription,omitempty"`
}

type NavigationItem struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	External bool   `json:"external,omitempty"`
	Icon     string `json:"icon,omitempty"`
}

type FooterSection struct {
	Title string           `json:"title"`
	Links []NavigationItem `json:"links"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Label    string `json:"label,omitempty"`
}

// DefaultSettings is served whenever the settings endpoint cannot be read.
func DefaultSettings() Settings {
	return Settings{
		SiteName:        "Sarlab Blog",
		SiteDescription: "Premium marketing and technology insights",
		Navigation: []NavigationItem{
			{Label: "Home", Href: "/"},
			{Label: "Blog", Href: "/blog"},
		},
		FooterLinks: []FooterSection{},
		SocialLinks: []SocialLink{},
	}
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Envelope is the single-object response wrapper used by the content API.
type Envelope[T any] struct {
	Data T `json:"data"`
}
