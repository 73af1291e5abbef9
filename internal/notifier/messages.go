package notifier

import (
	"github.com/Nixie-Tech-LLC/athan/internal/device"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const (
	FajrClip    = "/mp3/002.mp3"
	DefaultClip = "/mp3/001.mp3"
)

const (
	promptTitle = "تنبيه بوقت الصلاة"
	buttonStop  = "إيقاف الأذان"
	buttonExit  = "خروج"
)

var promptMessages = map[model.PrayerName]string{
	model.Fajr:    "حان الآن وقت صلاة الفجر",
	model.Dhuhr:   "حان الآن وقت صلاة الظهر",
	model.Asr:     "حان الآن وقت صلاة العصر",
	model.Maghrib: "حان الآن وقت صلاة المغرب",
	model.Isha:    "حان الآن وقت صلاة العشاء",
}

// ClipFor picks the fajr adhan when fajr is the upcoming prayer and the regular one otherwise.
func ClipFor(next model.PrayerName) string {
	if next == model.Fajr {
		return FajrClip
	}
	return DefaultClip
}

func PromptFor(name model.PrayerName) device.Prompt {
	return device.Prompt{
		Title:   promptTitle,
		Message: promptMessages[name],
		Buttons: []string{buttonStop, buttonExit},
	}
}
