package delivery

import "net/http"

// Cache-Control profiles for CDN-fronted responses.
const (
	CacheList    = "public, s-maxage=60, stale-while-revalidate=600"
	CacheStatic  = "public, s-maxage=300, stale-while-revalidate=3600"
	CacheNoIndex = "private, no-cache"
	CacheRobots  = "public, max-age=86400"
	CacheNone    = "no-store"
)

func setCacheControl(w http.ResponseWriter, profile string) {
	w.Header().Set("Cache-Control", profile)
}
