package portal

import (
	"embed"
	"io"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var views = template.Must(
	template.New("views").
		Funcs(template.FuncMap{
			"truncate": truncate,
			"when":     func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
			"plural": func(n int) string {
				if n == 1 {
					return ""
				}
				return "s"
			},
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

func render(w io.Writer, name string, data interface{}) error {
	return errors.Wrapf(views.ExecuteTemplate(w, name, data), "rendering %s", name)
}

// truncate cuts s to n runes, marking the cut with an ellipsis.
func truncate(n int, s string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
