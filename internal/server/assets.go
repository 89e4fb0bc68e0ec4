package server

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed static
var staticFS embed.FS

type assetServer struct {
	fileServer http.Handler
	fileSystem fs.FS
}

func newAssetServer() *assetServer {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return &assetServer{
		fileServer: http.StripPrefix("/static/", http.FileServer(http.FS(sub))),
		fileSystem: sub,
	}
}

// ServeHTTP serves embedded files and 404s for anything else, including
// directory listings.
func (s *assetServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")
	info, err := fs.Stat(s.fileSystem, path)
	if path == "" || err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	s.fileServer.ServeHTTP(w, r)
}
