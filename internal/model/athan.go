package model

import "time"

// PrayerName identifies one of the five daily prayers.
type PrayerName string

const (
	Fajr    PrayerName = "fajr"
	Dhuhr   PrayerName = "dhuhr"
	Asr     PrayerName = "asr"
	Maghrib PrayerName = "maghrib"
	Isha    PrayerName = "isha"
)

// Prayers lists the five prayers in the order they are checked every tick.
var Prayers = []PrayerName{Fajr, Dhuhr, Asr, Maghrib, Isha}

type Prayer struct {
	Name      PrayerName `json:"name"`
	Hour      int        `json:"hour"`   // 0-23, local to the requested coordinates
	Minute    int        `json:"minute"`
	Formatted string     `json:"time"` // "5:12 AM"
}

// PrayerTimes is one day of timings. It is recomputed on every poll and never persisted.
type PrayerTimes struct {
	Date    string     `json:"date"` // "02-01-2006"
	Prayers []Prayer   `json:"prayers"`
	Next    PrayerName `json:"next"`
}

// Get returns the timing for name.
func (p *PrayerTimes) Get(name PrayerName) (Prayer, bool) {
	for _, pr := range p.Prayers {
		if pr.Name == name {
			return pr, true
		}
	}
	return Prayer{}, false
}

type AthanPageData struct {
	City    string
	Date    string // "AUGUST 5, 2025"
	Next    string // prayer name, lower case
	Prayers []Prayer
}

// Location is what the location provider reports for the device.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Episode is one adhan playback: the prompt raised for a prayer and how it ended.
type Episode struct {
	ID        string     `db:"id"         json:"id"`
	Prayer    string     `db:"prayer"     json:"prayer"`
	Scheduled string     `db:"scheduled"  json:"scheduled"` // formatted prayer time
	Clip      string     `db:"clip"       json:"clip"`
	Outcome   string     `db:"outcome"    json:"outcome"`   // "stopped" or "dismissed"
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at"   json:"ended_at"`
}
