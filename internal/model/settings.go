package model

// Offsets are the per-prayer minute adjustments the user can dial in.
type Offsets struct {
	Fajr    int `json:"fajr_settings"`
	Sunrise int `json:"sunrise_settings"`
	Dhuhr   int `json:"dhuhr_settings"`
	Asr     int `json:"asr_settings"`
	Maghrib int `json:"maghrib_settings"`
	Isha    int `json:"isha_settings"`
}

// Preferences is the typed view over the flat preference keys.
// Latitude and Longitude are either both set or both nil.
type Preferences struct {
	CalculationMethod    string   `json:"calculation_method"`
	Shafaq               string   `json:"shafaq"`
	Madhab               string   `json:"madhab"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
	Latitude             *float64 `json:"latitude"`
	Longitude            *float64 `json:"longitude"`
	Timezone             *string  `json:"timezone"`
	Offsets              Offsets  `json:"offsets"`
	Theme                string   `json:"theme"`
}

type ThemeSwatch struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
}

// SettingsForm is the state of the settings page controls after load.
// An empty select value means no option matched the stored value.
type SettingsForm struct {
	Calculation   string `json:"Calculation_settings"`
	Shafaq        string `json:"Shafaq_settings"`
	Madhab        string `json:"madhab_settings"`
	Notifications bool   `json:"notifications_adhan"`
	Latitude      string `json:"latitude_settings"`
	Longitude     string `json:"longitude_settings"`
	Timezone      string `json:"timezone_settings"`
	Offsets

	CalculationOptions []string      `json:"calculation_options"`
	ShafaqOptions      []string      `json:"shafaq_options"`
	MadhabOptions      []string      `json:"madhab_options"`
	Themes             []ThemeSwatch `json:"themes"`
	BackURL            string        `json:"back_url"`
}

// SettingsInput is a submitted settings form. A nil field is a control the page did not render.
type SettingsInput struct {
	Calculation   *string `json:"Calculation_settings"`
	Shafaq        *string `json:"Shafaq_settings"`
	Madhab        *string `json:"madhab_settings"`
	Notifications *bool   `json:"notifications_adhan"`
	Latitude      *string `json:"latitude_settings"`
	Longitude     *string `json:"longitude_settings"`
	Timezone      *string `json:"timezone_settings"`
	Fajr          *string `json:"fajr_settings"`
	Sunrise       *string `json:"sunrise_settings"`
	Dhuhr         *string `json:"dhuhr_settings"`
	Asr           *string `json:"asr_settings"`
	Maghrib       *string `json:"maghrib_settings"`
	Isha          *string `json:"isha_settings"`
}

// ActionResult tells the page which alert to flash and where to go afterwards.
type ActionResult struct {
	Alert           string `json:"alert"`
	Redirect        string `json:"redirect"`
	RedirectAfterMs int64  `json:"redirect_after_ms"`
}
