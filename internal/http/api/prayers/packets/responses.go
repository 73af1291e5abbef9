package packets

import "github.com/Nixie-Tech-LLC/athan/internal/model"

type TodayResponse struct {
	Date    string           `json:"date"`
	Clock   string           `json:"clock"` // current minute, "3:04 PM"
	Next    model.PrayerName `json:"next"`
	Prayers []model.Prayer   `json:"prayers"`
}

type HistoryResponse struct {
	Episodes []model.Episode `json:"episodes"`
}
