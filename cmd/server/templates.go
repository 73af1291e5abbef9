package main

import (
	"html/template"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// LoadTemplates parses the page templates (settings.html, athan.html)
func LoadTemplates(pattern string) *template.Template {
	tmpl := template.New("")
	files, err := filepath.Glob(pattern)
	if err != nil {
		log.Fatal().Err(err).Str("pattern", pattern).Msg("bad template pattern")
	}
	if len(files) == 0 {
		log.Warn().Str("pattern", pattern).Msg("no templates found, pages will not render")
		return tmpl
	}
	return template.Must(tmpl.ParseFiles(files...))
}
