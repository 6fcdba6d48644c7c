// Package site serves the static assets of the dashboard page.
package site

import (
	"context"
	"net/http"
)

// AssetsPrefix is the URL prefix the dashboard page loads its assets from.
const AssetsPrefix = "/assets/"

// Register attaches the asset routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle(AssetsPrefix, NewAssetsHandler())
}

// NewAssetsHandler serves the embedded stylesheet and script under AssetsPrefix.
func NewAssetsHandler() http.Handler {
	files := http.StripPrefix(AssetsPrefix, http.FileServer(FS()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=300")
		files.ServeHTTP(w, r)
	})
}
