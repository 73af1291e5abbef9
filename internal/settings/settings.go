// Package settings backs the settings page: it fills the form from stored
// preferences, saves it back, refreshes the device location and tracks the
// theme swatch the user picked but has not saved yet.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/location"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
)

var ErrUnknownTheme = errors.New("unknown theme")

const (
	PagePath = "/pages/settings.html"
	BackPath = "/more.html"

	successAlert     = "تم الحفظ بنجاح"
	permissionDenied = "الرجاء السماح بالوصول الى الموقع الجغرافي او قم بإدخال الإحداثيات بشكل يدوي"

	successRedirectDelayMs = 1000
	deniedRedirectDelayMs  = 3000
)

var DefaultThemes = []string{"theme_1", "theme_2", "theme_3", "theme_4", "theme_5", "theme_6"}

type PermissionChecker interface {
	HasLocationPermission(ctx context.Context) (bool, error)
}

// ErrorReporter receives failures of asynchronous settings actions.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

type LogReporter struct{}

func (LogReporter) Report(_ context.Context, err error) {
	log.Error().Err(err).Msg("settings action failed")
}

type Context struct {
	store   *prefs.Store
	locator location.Provider
	perms   PermissionChecker
	errs    ErrorReporter
	themes  []string

	mu           sync.Mutex
	pendingTheme string
}

func New(store *prefs.Store, locator location.Provider, perms PermissionChecker, errs ErrorReporter, themes []string) *Context {
	if errs == nil {
		errs = LogReporter{}
	}
	if len(themes) == 0 {
		themes = DefaultThemes
	}
	return &Context{store: store, locator: locator, perms: perms, errs: errs, themes: themes}
}

func (c *Context) pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingTheme
}

// option returns the value a select would show: the stored value or the default,
// and nothing when no option carries that value.
func (c *Context) option(ctx context.Context, key, def string, options []string) (string, error) {
	v, err := c.store.StringOr(ctx, key, def)
	if err != nil {
		return "", err
	}
	if !slices.Contains(options, v) {
		return "", nil
	}
	return v, nil
}

// Form loads every control on the page from storage, falling back to defaults.
func (c *Context) Form(ctx context.Context) (*model.SettingsForm, error) {
	form := &model.SettingsForm{
		CalculationOptions: prayer.Methods,
		ShafaqOptions:      prayer.Shafaqs,
		MadhabOptions:      prayer.Madhabs,
		BackURL:            BackPath,
	}
	var err error

	if form.Calculation, err = c.option(ctx, prefs.KeyCalculationSettings, prefs.DefaultCalculation, prayer.Methods); err != nil {
		return nil, err
	}
	if form.Shafaq, err = c.option(ctx, prefs.KeyShafaqSettings, prefs.DefaultShafaq, prayer.Shafaqs); err != nil {
		return nil, err
	}
	if form.Madhab, err = c.option(ctx, prefs.KeyMadhabSettings, prefs.DefaultMadhab, prayer.Madhabs); err != nil {
		return nil, err
	}

	notif, ok, err := c.store.Get(ctx, prefs.KeyNotificationsAdhan)
	if err != nil {
		return nil, err
	}
	form.Notifications = !ok || prefs.ParseBool(notif)

	lat, latOK, err := c.store.Get(ctx, prefs.KeyLatitudeSettings)
	if err != nil {
		return nil, err
	}
	lon, lonOK, err := c.store.Get(ctx, prefs.KeyLongitudeSettings)
	if err != nil {
		return nil, err
	}
	if latOK && lonOK && lat != "" && lon != "" {
		form.Latitude, form.Longitude = lat, lon
	}

	if form.Timezone, err = c.store.StringOr(ctx, prefs.KeyTimezoneSettings, ""); err != nil {
		return nil, err
	}

	offsets := []*int{&form.Fajr, &form.Sunrise, &form.Dhuhr, &form.Asr, &form.Maghrib, &form.Isha}
	for i, key := range prefs.OffsetKeys {
		if *offsets[i], err = c.store.Offset(ctx, key); err != nil {
			return nil, err
		}
	}

	highlighted := c.pending()
	if highlighted == "" {
		if highlighted, err = c.store.StringOr(ctx, prefs.KeyTheme, ""); err != nil {
			return nil, err
		}
	}
	form.Themes = c.swatches(highlighted)

	return form, nil
}

// Save writes every submitted control back as-is. Values are not validated.
// Empty coordinate and timezone fields are skipped so an unset location stays unset.
func (c *Context) Save(ctx context.Context, in model.SettingsInput) (*model.ActionResult, error) {
	stored, err := c.store.StringOr(ctx, prefs.KeyTheme, "")
	if err != nil {
		return nil, err
	}

	raw := []struct {
		key       string
		value     *string
		skipEmpty bool
	}{
		{prefs.KeyCalculationSettings, in.Calculation, false},
		{prefs.KeyShafaqSettings, in.Shafaq, false},
		{prefs.KeyMadhabSettings, in.Madhab, false},
		{prefs.KeyLongitudeSettings, in.Longitude, true},
		{prefs.KeyLatitudeSettings, in.Latitude, true},
		{prefs.KeyTimezoneSettings, in.Timezone, true},
		{prefs.KeyFajrSettings, in.Fajr, false},
		{prefs.KeySunriseSettings, in.Sunrise, false},
		{prefs.KeyDhuhrSettings, in.Dhuhr, false},
		{prefs.KeyAsrSettings, in.Asr, false},
		{prefs.KeyMaghribSettings, in.Maghrib, false},
		{prefs.KeyIshaSettings, in.Isha, false},
	}
	for _, f := range raw {
		if f.value == nil || (f.skipEmpty && *f.value == "") {
			continue
		}
		if err := c.store.Set(ctx, f.key, *f.value); err != nil {
			return nil, err
		}
	}
	if in.Notifications != nil {
		if err := c.store.Set(ctx, prefs.KeyNotificationsAdhan, prefs.FormatBool(*in.Notifications)); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	theme := c.pendingTheme
	c.pendingTheme = ""
	c.mu.Unlock()

	switch {
	case theme != "":
	case stored != "":
		theme = stored
	default:
		theme = prefs.DefaultTheme
	}
	if err := c.store.Set(ctx, prefs.KeyTheme, theme); err != nil {
		return nil, err
	}

	log.Info().Str("theme", theme).Msg("settings saved")
	return &model.ActionResult{Alert: successAlert, Redirect: PagePath, RedirectAfterMs: successRedirectDelayMs}, nil
}

// RefreshLocation asks the device for location permission and, when granted,
// stores the current coordinates and timezone.
func (c *Context) RefreshLocation(ctx context.Context) (*model.ActionResult, error) {
	granted, err := c.perms.HasLocationPermission(ctx)
	if err != nil {
		err = fmt.Errorf("location permission: %w", err)
		c.errs.Report(ctx, err)
		return nil, err
	}
	if !granted {
		return &model.ActionResult{Alert: permissionDenied, Redirect: PagePath, RedirectAfterMs: deniedRedirectDelayMs}, nil
	}

	loc, err := c.locator.Locate(ctx)
	if err != nil {
		err = fmt.Errorf("refresh location: %w", err)
		c.errs.Report(ctx, err)
		return nil, err
	}

	if err := c.store.SetCoordinates(ctx, prefs.KeyLatitudeSettings, prefs.KeyLongitudeSettings, loc.Latitude, loc.Longitude); err != nil {
		c.errs.Report(ctx, err)
		return nil, err
	}
	if err := c.store.Set(ctx, prefs.KeyTimezoneSettings, loc.Timezone); err != nil {
		c.errs.Report(ctx, err)
		return nil, err
	}

	log.Info().Float64("latitude", loc.Latitude).Float64("longitude", loc.Longitude).Str("timezone", loc.Timezone).Msg("location refreshed")
	return &model.ActionResult{Alert: successAlert, Redirect: PagePath, RedirectAfterMs: successRedirectDelayMs}, nil
}

// SelectTheme highlights a swatch and remembers it until the next save.
func (c *Context) SelectTheme(id string) ([]model.ThemeSwatch, error) {
	if !slices.Contains(c.themes, id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, id)
	}
	c.mu.Lock()
	c.pendingTheme = id
	c.mu.Unlock()
	return c.swatches(id), nil
}

func (c *Context) swatches(selected string) []model.ThemeSwatch {
	out := make([]model.ThemeSwatch, len(c.themes))
	for i, id := range c.themes {
		out[i] = model.ThemeSwatch{ID: id, Selected: id == selected}
	}
	return out
}
