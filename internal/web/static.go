package web

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/rook-computer/epaper/internal/assets"
)

// StaticUIHandler serves the embedded UI, or staticDir when it names an
// existing directory.
func StaticUIHandler(staticDir string) http.Handler {
	if staticDir == "" {
		return cleanPath(http.FileServer(http.FS(assets.WebUI)))
	}

	if st, err := os.Stat(staticDir); err != nil || !st.IsDir() {
		return http.NotFoundHandler()
	}
	return cleanPath(http.FileServer(http.Dir(staticDir)))
}

func cleanPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = filepath.ToSlash(filepath.Clean("/" + r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
