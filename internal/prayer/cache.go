package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// Cache is the subset of the key-value backend the timing cache needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedProvider keeps one day of timings per configuration so the 5 second poll
// does not hit the upstream API.
type CachedProvider struct {
	next  Provider
	cache Cache
}

func NewCachedProvider(next Provider, cache Cache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache}
}

func cacheKey(req Request) string {
	o := req.Offsets
	return fmt.Sprintf("timings:%s:%s:%.4f:%.4f:%s:%s:%d,%d,%d,%d,%d,%d",
		req.Date.Format("2006-01-02"), req.Method, req.Latitude, req.Longitude,
		req.Madhab, req.Shafaq, o.Fajr, o.Sunrise, o.Dhuhr, o.Asr, o.Maghrib, o.Isha)
}

func (c *CachedProvider) Today(ctx context.Context, req Request) (*model.PrayerTimes, error) {
	key := cacheKey(req)

	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("timings cache read failed")
	}
	if ok {
		var cached model.PrayerTimes
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			cached.Next = NextPrayer(cached.Prayers, req.Date)
			return &cached, nil
		}
	}

	times, err := c.next.Today(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(times)
	if err == nil {
		if err := c.cache.SetWithTTL(ctx, key, string(data), untilEndOfDay(req.Date)); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("timings cache write failed")
		}
	}
	return times, nil
}

func untilEndOfDay(t time.Time) time.Duration {
	y, m, d := t.Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	if ttl := end.Sub(t); ttl > time.Minute {
		return ttl
	}
	return time.Minute
}
