// Package prefs is the preference store: a thin typed layer over a flat string
// key-value backend (Redis in production, memory in tests).
package prefs

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

// KV is the flat string store the preferences live in.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, ok, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to write preference")
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Playing reports the adhan playback flag and whether it has ever been written.
// Only the literal "false" counts as idle.
func (s *Store) Playing(ctx context.Context) (playing bool, present bool, err error) {
	v, ok, err := s.Get(ctx, KeyAdhanPlaying)
	if err != nil || !ok {
		return false, ok, err
	}
	return v != "false", true, nil
}

func (s *Store) SetPlaying(ctx context.Context, playing bool) error {
	return s.Set(ctx, KeyAdhanPlaying, FormatBool(playing))
}

// Coordinates returns a pair of keys as floats. Both must be present and numeric,
// otherwise ok is false.
func (s *Store) Coordinates(ctx context.Context, latKey, lonKey string) (lat, lon float64, ok bool, err error) {
	latRaw, latOK, err := s.Get(ctx, latKey)
	if err != nil {
		return 0, 0, false, err
	}
	lonRaw, lonOK, err := s.Get(ctx, lonKey)
	if err != nil {
		return 0, 0, false, err
	}
	if !latOK || !lonOK || latRaw == "" || lonRaw == "" {
		return 0, 0, false, nil
	}
	lat, latErr := strconv.ParseFloat(latRaw, 64)
	lon, lonErr := strconv.ParseFloat(lonRaw, 64)
	if latErr != nil || lonErr != nil {
		return 0, 0, false, nil
	}
	return lat, lon, true, nil
}

// SetCoordinates writes both halves of a coordinate pair.
func (s *Store) SetCoordinates(ctx context.Context, latKey, lonKey string, lat, lon float64) error {
	if err := s.Set(ctx, latKey, FormatFloat(lat)); err != nil {
		return err
	}
	return s.Set(ctx, lonKey, FormatFloat(lon))
}

// StringOr returns the stored value for key, or def when the key is absent or empty.
func (s *Store) StringOr(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok || v == "" {
		return def, nil
	}
	return v, nil
}

// Offset reads a minute offset. Missing or non-numeric values count as zero.
func (s *Store) Offset(ctx context.Context, key string) (int, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	return ParseNumber(v), nil
}

// LoadPreferences assembles the settings-page preferences with defaults applied.
func (s *Store) LoadPreferences(ctx context.Context) (*model.Preferences, error) {
	p := &model.Preferences{}
	var err error

	if p.CalculationMethod, err = s.StringOr(ctx, KeyCalculationSettings, DefaultCalculation); err != nil {
		return nil, err
	}
	if p.Shafaq, err = s.StringOr(ctx, KeyShafaqSettings, DefaultShafaq); err != nil {
		return nil, err
	}
	if p.Madhab, err = s.StringOr(ctx, KeyMadhabSettings, DefaultMadhab); err != nil {
		return nil, err
	}
	if p.Theme, err = s.StringOr(ctx, KeyTheme, DefaultTheme); err != nil {
		return nil, err
	}

	notif, ok, err := s.Get(ctx, KeyNotificationsAdhan)
	if err != nil {
		return nil, err
	}
	p.NotificationsEnabled = !ok || ParseBool(notif)

	lat, lon, ok, err := s.Coordinates(ctx, KeyLatitudeSettings, KeyLongitudeSettings)
	if err != nil {
		return nil, err
	}
	if ok {
		p.Latitude, p.Longitude = &lat, &lon
	}

	tz, ok, err := s.Get(ctx, KeyTimezoneSettings)
	if err != nil {
		return nil, err
	}
	if ok && tz != "" {
		p.Timezone = &tz
	}

	offsets := []*int{&p.Offsets.Fajr, &p.Offsets.Sunrise, &p.Offsets.Dhuhr, &p.Offsets.Asr, &p.Offsets.Maghrib, &p.Offsets.Isha}
	for i, key := range OffsetKeys {
		if *offsets[i], err = s.Offset(ctx, key); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// ParseNumber converts a stored string the way a form number field would,
// treating anything unparseable as zero.
func ParseNumber(v string) int {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return 0
}

func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
