package content

import (
	"net/url"
	"strings"
)

// LanguageURL builds {site}/{lang}[/path].
func LanguageURL(siteURL string, lang Language, path string) string {
	base := strings.TrimRight(siteURL, "/") + "/" + string(lang)
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// PostURL is the public permalink of a post.
func PostURL(siteURL string, lang Language, slug string) string {
	return LanguageURL(siteURL, lang, "blog/"+url.PathEscape(slug))
}
