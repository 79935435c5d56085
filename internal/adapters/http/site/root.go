// Package site serves the browser board: a static page that renders GET /view
// and posts board events.
package site

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var pageFS embed.FS

// Register attaches the board page to mux at the root path.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler())
}

// RootHandler serves the embedded page and its assets.
type RootHandler struct {
	files http.Handler
}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	sub, err := fs.Sub(pageFS, "static")
	if err != nil {
		panic(err)
	}
	return &RootHandler{files: http.FileServer(http.FS(sub))}
}

// ServeHTTP serves GET / and the files next to index.html.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}
