package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	indexTemplate  = "index.html"
	resultTemplate = "result.html"
	layoutFile     = "templates/layout.html"
)

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// parsePage parses one page together with the shared layout
func parsePage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, "templates/"+name))
}
