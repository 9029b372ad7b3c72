// Package web provides the embedded usage page served at the root path.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes serves the usage page at "/" and "/index.html".
// Other paths are left to the API routes.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}
	content, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		return err
	}

	serveIndex := func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, content)
	}
	e.GET("/", serveIndex)
	e.GET("/index.html", serveIndex)
	return nil
}

// HasEmbeddedFiles returns true if the usage page has been embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "dist/index.html")
	return err == nil
}
