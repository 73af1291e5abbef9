package prefs

// Keys read by the notification poller.
const (
	KeyCalculation  = "Calculation"
	KeyLatitude     = "latitude"
	KeyLongitude    = "longitude"
	KeyNotification = "notification"
	KeyAdhanPlaying = "AdhanPlaying"
)

// Keys written by the settings page.
const (
	KeyCalculationSettings = "Calculation_settings"
	KeyShafaqSettings      = "Shafaq_settings"
	KeyMadhabSettings      = "madhab_settings"
	KeyNotificationsAdhan  = "notifications_adhan"
	KeyLongitudeSettings   = "longitude_settings"
	KeyLatitudeSettings    = "latitude_settings"
	KeyTimezoneSettings    = "timezone_settings"
	KeyFajrSettings        = "fajr_settings"
	KeySunriseSettings     = "sunrise_settings"
	KeyDhuhrSettings       = "dhuhr_settings"
	KeyAsrSettings         = "asr_settings"
	KeyMaghribSettings     = "maghrib_settings"
	KeyIshaSettings        = "isha_settings"
	KeyTheme               = "themeStorage"
)

const (
	DefaultCalculation = "UmmAlQura"
	DefaultShafaq      = "General"
	DefaultMadhab      = "Shafi"
	DefaultTheme       = "theme_1"
)

// OffsetKeys are the minute adjustment keys in page order.
var OffsetKeys = []string{
	KeyFajrSettings,
	KeySunriseSettings,
	KeyDhuhrSettings,
	KeyAsrSettings,
	KeyMaghribSettings,
	KeyIshaSettings,
}
