// internal/app/features/meet/views/views.go
package meetviews

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "meet",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
