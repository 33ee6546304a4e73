package main

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/fullstacknyc/portfolio/internal/systems"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

//go:embed content/systems.yaml
var defaultCatalog []byte

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

func staticFiles() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return sub
}

// loadCatalog reads the catalog at path, or the embedded one when path is empty.
func loadCatalog(path string) (systems.Catalog, error) {
	if path == "" {
		return systems.ParseCatalog(defaultCatalog, systems.FormatYAML)
	}
	return systems.LoadCatalog(path)
}
