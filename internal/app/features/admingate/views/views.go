// internal/app/features/admingate/views/views.go
package admingateviews

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "admingate",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
