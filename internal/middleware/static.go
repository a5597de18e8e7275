package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#f7f3ef"/><path d="M100 58c-9 0-17 5-21 13-4-8-12-13-21-13-13 0-23 10-23 23 0 26 44 52 44 52s44-26 44-52c0-13-10-23-23-23z" fill="#c9a66b"/><text x="100" y="170" text-anchor="middle" font-family="Arial" font-size="14" fill="#8a8178">VENDOR</text></svg>`

// StaticFileServer serves vendor logo assets, falling back to a
// placeholder image when the file is missing.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(placeholderSVG))
	})
}
