package engine

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// ConfigureLocale loads translations for player-facing results from path (a gettext
// locales directory). Without it the English source strings are used.
func ConfigureLocale(path, language string) {
	if path == "" || language == "" {
		return
	}
	gotext.Configure(path, language, "default")
}

func tr(format string, args ...any) string {
	return gotext.Get(format, args...)
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
