package packets

import "github.com/Nixie-Tech-LLC/athan/internal/model"

// returned after a theme swatch is picked
type ThemesResponse struct {
	Themes []model.ThemeSwatch `json:"themes"`
}

// rendered into settings.html
type SettingsPage struct {
	Form *model.SettingsForm
	// Alert is flashed once, e.g. after a redirect from a save.
	Alert string
	// LocationFromAPI tells the page to fetch coordinates and timezone with its token.
	LocationFromAPI bool
}
