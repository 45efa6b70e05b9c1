package assets

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed logo.svg
var logoSVG []byte

// LogoResource returns the application icon for Fyne
func LogoResource() fyne.Resource {
	return fyne.NewStaticResource("logo.svg", logoSVG)
}
