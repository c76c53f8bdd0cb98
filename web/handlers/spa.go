package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var staticFS embed.FS

// servePage serves the draw page and its assets. Unknown paths fall back to
// index.html so game links can be opened directly.
func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}

	dist, err := fs.Sub(staticFS, "static")
	if err != nil {
		h.logger.Error("Failed to get static filesystem", "error", err)
		http.NotFound(w, r)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	if _, err := fs.Stat(dist, path); err == nil {
		http.ServeFileFS(w, r, dist, path)
		return
	}
	http.ServeFileFS(w, r, dist, "index.html")
}

// RegisterSPARoutes registers the catch-all page route.
// This should be called after API routes are registered.
func (h *Handler) RegisterSPARoutes(r chi.Router) {
	r.Get("/*", h.servePage)
}
