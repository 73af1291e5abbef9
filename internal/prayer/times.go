package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// ClockLayout renders a minute the way the prompt and the app display it.
const ClockLayout = "3:04 PM"

// FormatClock renders the current minute as "h:mm AM/PM".
func FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

// parseClock reads a 24h "HH:MM" timing. Trailing annotations such as " (+03)" are ignored.
func parseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", s)
	}
	return hour, minute, nil
}

func NewPrayer(name model.PrayerName, hour, minute int) model.Prayer {
	t := time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC)
	return model.Prayer{Name: name, Hour: hour, Minute: minute, Formatted: FormatClock(t)}
}

// Matches reports whether now falls in the prayer's minute.
func Matches(p model.Prayer, now time.Time) bool {
	return now.Hour() == p.Hour && now.Minute() == p.Minute
}

// NextPrayer is the first prayer whose minute has not ended yet at now. During a
// prayer's own minute that prayer is still next. After isha it wraps to fajr.
func NextPrayer(prayers []model.Prayer, now time.Time) model.PrayerName {
	cur := now.Hour()*60 + now.Minute()
	for _, p := range prayers {
		if p.Hour*60+p.Minute >= cur {
			return p.Name
		}
	}
	return model.Fajr
}
