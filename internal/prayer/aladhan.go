// Package prayer computes the day's prayer timings through the aladhan.com API.
package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

const DefaultBaseURL = "https://api.aladhan.com"

// Request describes which day to compute and with which conventions.
// Date also serves as "now" when picking the next prayer.
type Request struct {
	Method    string
	Latitude  float64
	Longitude float64
	Madhab    string
	Shafaq    string
	Offsets   model.Offsets
	Date      time.Time
}

type Provider interface {
	Today(ctx context.Context, req Request) (*model.PrayerTimes, error)
}

type AladhanClient struct {
	baseURL string
	http    *http.Client
}

func NewAladhanClient(baseURL string, timeout time.Duration) *AladhanClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &AladhanClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var timingKeys = map[model.PrayerName]string{
	model.Fajr:    "Fajr",
	model.Dhuhr:   "Dhuhr",
	model.Asr:     "Asr",
	model.Maghrib: "Maghrib",
	model.Isha:    "Isha",
}

func (a *AladhanClient) Today(ctx context.Context, req Request) (*model.PrayerTimes, error) {
	method, err := MethodID(req.Method)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, req.Method)
	}

	date := req.Date.Format("02-01-2006")
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", req.Latitude))
	q.Set("longitude", fmt.Sprintf("%f", req.Longitude))
	q.Set("method", fmt.Sprint(method))
	q.Set("school", fmt.Sprint(school(req.Madhab)))
	if req.Shafaq != "" {
		q.Set("shafaq", strings.ToLower(req.Shafaq))
	}
	q.Set("tune", tune(req.Offsets))

	endpoint := fmt.Sprintf("%s/v1/timings/%s?%s", a.baseURL, date, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.http.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("failed to get prayer times")
		return nil, fmt.Errorf("fetch timings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch timings: unexpected status %d", resp.StatusCode)
	}

	var aladhan struct {
		Data struct {
			Timings map[string]string `json:"timings"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&aladhan); err != nil {
		return nil, fmt.Errorf("decode timings: %w", err)
	}

	prayers := make([]model.Prayer, 0, len(model.Prayers))
	for _, name := range model.Prayers {
		raw, ok := aladhan.Data.Timings[timingKeys[name]]
		if !ok {
			return nil, fmt.Errorf("timings missing %s", name)
		}
		h, m, err := parseClock(raw)
		if err != nil {
			return nil, err
		}
		prayers = append(prayers, NewPrayer(name, h, m))
	}

	return &model.PrayerTimes{
		Date:    date,
		Prayers: prayers,
		Next:    NextPrayer(prayers, req.Date),
	}, nil
}

// tune is aladhan's minute adjustment list:
// Imsak,Fajr,Sunrise,Dhuhr,Asr,Maghrib,Sunset,Isha,Midnight.
func tune(o model.Offsets) string {
	return fmt.Sprintf("0,%d,%d,%d,%d,%d,0,%d,0", o.Fajr, o.Sunrise, o.Dhuhr, o.Asr, o.Maghrib, o.Isha)
}
