// Package serve previews the site exactly as deploy would publish it.
package serve

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/adnsv/tsplay/publish"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves the manifest entries found under root. Requests for
// anything else get 404; `/` maps to index.html.
func Handler(root string, m publish.Manifest) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		rel := path.Clean("/" + chi.URLParam(req, "*"))[1:]
		if rel == "" {
			rel = "index.html"
		}
		if !m.Allows(rel) {
			http.NotFound(w, req)
			return
		}
		fn := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(fn)
		if err != nil || info.IsDir() {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, req, fn)
	})
	return r
}
