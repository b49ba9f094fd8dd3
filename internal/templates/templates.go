package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var htmlFiles embed.FS

var Selector,
	Products *template.Template

func Init() error {
	tmpls, err := template.New("all").ParseFS(htmlFiles, "*.html")
	if err != nil {
		return err
	}
	Selector = ensure(tmpls, "selector.html")
	Products = ensure(tmpls, "products.html")
	return nil
}

func ensure(templates *template.Template, name string) *template.Template {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		panic("template " + name + " not found")
	}
	return tmpl
}
