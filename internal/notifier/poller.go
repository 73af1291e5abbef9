// Package notifier plays the adhan when the clock reaches a prayer time.
//
// Two tickers share one goroutine: the poll ticker compares the current minute
// against today's timings, the guard ticker clears the playback flag once a
// minute. Device calls (play, prompt, stop) run in a goroutine per episode, so a
// hung device never holds up either ticker. Because nothing signals the end of playback, a flag set just before a
// guard tick can be cleared while the prompt is still open; the next poll in the
// same minute then starts a second episode. That window is accepted.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/device"
	"github.com/Nixie-Tech-LLC/athan/internal/location"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
)

var ErrNoCoordinates = errors.New("no stored coordinates")

type Player interface {
	Play(ctx context.Context, clip string) error
	Stop(ctx context.Context) error
}

type Confirmer interface {
	Confirm(ctx context.Context, p device.Prompt) (device.Choice, error)
}

// Recorder keeps a history of playback episodes.
type Recorder interface {
	RecordEpisode(ctx context.Context, e model.Episode) error
}

type NopRecorder struct{}

func (NopRecorder) RecordEpisode(context.Context, model.Episode) error { return nil }

type Config struct {
	PollInterval  time.Duration
	GuardInterval time.Duration
	// DeviceTimeout bounds the wait for the device to start playback.
	DeviceTimeout time.Duration
	// PromptTimeout closes an unanswered prompt as dismissed.
	PromptTimeout time.Duration
}

const (
	DefaultDeviceTimeout = 10 * time.Second
	DefaultPromptTimeout = 5 * time.Minute
)

func DefaultConfig() Config {
	return Config{
		PollInterval:  5 * time.Second,
		GuardInterval: 60 * time.Second,
		DeviceTimeout: DefaultDeviceTimeout,
		PromptTimeout: DefaultPromptTimeout,
	}
}

type Poller struct {
	store   *prefs.Store
	times   prayer.Provider
	locator location.Provider
	player  Player
	dialog  Confirmer
	history Recorder
	cfg     Config
	now     func() time.Time

	prompts sync.WaitGroup
}

type Option func(*Poller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.history = r }
}

func NewPoller(store *prefs.Store, times prayer.Provider, locator location.Provider,
	player Player, dialog Confirmer, cfg Config, opts ...Option) *Poller {
	if cfg.DeviceTimeout <= 0 {
		cfg.DeviceTimeout = DefaultDeviceTimeout
	}
	if cfg.PromptTimeout <= 0 {
		cfg.PromptTimeout = DefaultPromptTimeout
	}
	p := &Poller{
		store:   store,
		times:   times,
		locator: locator,
		player:  player,
		dialog:  dialog,
		history: NopRecorder{},
		cfg:     cfg,
		now:     time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start makes sure coordinates are stored, fetching them once if missing, and
// reports whether notifications are enabled. A failed lookup is not retried.
func (p *Poller) Start(ctx context.Context) (bool, error) {
	_, _, ok, err := p.store.Coordinates(ctx, prefs.KeyLatitude, prefs.KeyLongitude)
	if err != nil {
		return false, err
	}
	if !ok {
		loc, err := p.locator.Locate(ctx)
		if err != nil {
			return false, fmt.Errorf("locate device: %w", err)
		}
		if err := p.store.SetCoordinates(ctx, prefs.KeyLatitude, prefs.KeyLongitude, loc.Latitude, loc.Longitude); err != nil {
			return false, err
		}
		log.Info().Float64("latitude", loc.Latitude).Float64("longitude", loc.Longitude).Msg("stored device location")
	}

	v, ok, err := p.store.Get(ctx, prefs.KeyNotification)
	if err != nil {
		return false, err
	}
	// An empty value counts as unset here, so notifications stay on.
	return !ok || v == "" || prefs.ParseBool(v), nil
}

// Run starts the poller and blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	enabled, err := p.Start(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		log.Info().Msg("adhan notifications disabled, poller not started")
		return nil
	}

	poll := time.NewTicker(p.cfg.PollInterval)
	defer poll.Stop()
	guard := time.NewTicker(p.cfg.GuardInterval)
	defer guard.Stop()

	log.Info().Dur("poll", p.cfg.PollInterval).Dur("guard", p.cfg.GuardInterval).Msg("adhan poller started")

	for {
		select {
		case <-ctx.Done():
			p.prompts.Wait()
			return nil
		case <-poll.C:
			if _, err := p.Tick(ctx); err != nil {
				log.Error().Err(err).Msg("adhan poll failed")
			}
		case <-guard.C:
			if err := p.ResetPlayback(ctx); err != nil {
				log.Error().Err(err).Msg("adhan playback reset failed")
			}
		}
	}
}

// Tick runs one poll. It returns the matched prayer, or nil when nothing started.
// Playback and the prompt continue in the background; Wait blocks until they end.
func (p *Poller) Tick(ctx context.Context) (*model.Prayer, error) {
	playing, present, err := p.store.Playing(ctx)
	if err != nil {
		return nil, err
	}
	if !present {
		if err := p.store.SetPlaying(ctx, false); err != nil {
			return nil, err
		}
	}

	now := p.now()
	clock := prayer.FormatClock(now)

	times, err := p.timesAt(ctx, now)
	if err != nil {
		return nil, err
	}

	clip := ClipFor(times.Next)

	var matched *model.Prayer
	for _, name := range model.Prayers {
		if pr, ok := times.Get(name); ok && prayer.Matches(pr, now) {
			matched = &pr
			break
		}
	}
	if matched == nil || playing {
		return nil, nil
	}

	log.Info().Str("prayer", string(matched.Name)).Str("clock", clock).Str("clip", clip).Msg("prayer time reached")

	if err := p.store.SetPlaying(ctx, true); err != nil {
		return nil, err
	}

	p.prompts.Add(1)
	go p.episode(ctx, *matched, clip)

	return matched, nil
}

// Today returns the timings the poller matches against at this moment.
func (p *Poller) Today(ctx context.Context) (*model.PrayerTimes, error) {
	return p.timesAt(ctx, p.now())
}

// timesAt reads the method and coordinates afresh so edits apply on the next tick.
func (p *Poller) timesAt(ctx context.Context, now time.Time) (*model.PrayerTimes, error) {
	method, err := p.store.StringOr(ctx, prefs.KeyCalculation, prefs.DefaultCalculation)
	if err != nil {
		return nil, err
	}
	lat, lon, ok, err := p.store.Coordinates(ctx, prefs.KeyLatitude, prefs.KeyLongitude)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCoordinates
	}

	times, err := p.times.Today(ctx, prayer.Request{
		Method:    method,
		Latitude:  lat,
		Longitude: lon,
		Date:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("prayer times: %w", err)
	}
	return times, nil
}

// episode plays the clip and then raises the prompt. A failed or timed out play
// ends the episode without a prompt; the flag is left for the guard to clear.
func (p *Poller) episode(ctx context.Context, pr model.Prayer, clip string) {
	defer p.prompts.Done()

	startedAt := p.now()
	playCtx, cancelPlay := context.WithTimeout(ctx, p.cfg.DeviceTimeout)
	err := p.player.Play(playCtx, clip)
	cancelPlay()
	if err != nil {
		log.Error().Err(err).Str("prayer", string(pr.Name)).Str("clip", clip).Msg("failed to play adhan")
		return
	}

	p.prompt(ctx, pr, clip, startedAt)
}

func (p *Poller) prompt(ctx context.Context, pr model.Prayer, clip string, startedAt time.Time) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PromptTimeout)
	defer cancel()

	choice, err := p.dialog.Confirm(ctx, PromptFor(pr.Name))
	if err != nil {
		log.Error().Err(err).Str("prayer", string(pr.Name)).Msg("adhan prompt failed")
	}
	if choice == device.ChoiceStopped {
		if err := p.player.Stop(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("failed to stop adhan")
		}
	}

	ended := p.now()
	episode := model.Episode{
		ID:        uuid.NewString(),
		Prayer:    string(pr.Name),
		Scheduled: pr.Formatted,
		Clip:      clip,
		Outcome:   choice.String(),
		StartedAt: startedAt,
		EndedAt:   &ended,
	}
	if err := p.history.RecordEpisode(context.WithoutCancel(ctx), episode); err != nil {
		log.Warn().Err(err).Str("prayer", episode.Prayer).Msg("failed to record adhan episode")
	}
}

// ResetPlayback is the guard tick: the flag is created as "true" if missing and is
// then cleared unconditionally.
func (p *Poller) ResetPlayback(ctx context.Context) error {
	_, present, err := p.store.Playing(ctx)
	if err != nil {
		return err
	}
	if !present {
		if err := p.store.SetPlaying(ctx, true); err != nil {
			return err
		}
	}
	return p.store.SetPlaying(ctx, false)
}

// Wait blocks until every started episode has finished.
func (p *Poller) Wait() {
	p.prompts.Wait()
}
