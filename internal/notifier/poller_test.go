package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/athan/internal/device"
	"github.com/Nixie-Tech-LLC/athan/internal/location"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
)

type fakeTimes struct {
	mu       sync.Mutex
	prayers  []model.Prayer
	requests []prayer.Request
	err      error
}

func (f *fakeTimes) Today(_ context.Context, req prayer.Request) (*model.PrayerTimes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.PrayerTimes{
		Prayers: f.prayers,
		Next:    prayer.NextPrayer(f.prayers, req.Date),
	}, nil
}

func (f *fakeTimes) calls() []prayer.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]prayer.Request(nil), f.requests...)
}

type fakePlayer struct {
	mu     sync.Mutex
	played []string
	stops  int
}

func (f *fakePlayer) Play(_ context.Context, clip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, clip)
	return nil
}

func (f *fakePlayer) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakePlayer) snapshot() ([]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...), f.stops
}

type fakeDialog struct {
	mu      sync.Mutex
	choice  device.Choice
	prompts []device.Prompt
}

func (f *fakeDialog) Confirm(_ context.Context, p device.Prompt) (device.Choice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	return f.choice, nil
}

type memRecorder struct {
	mu       sync.Mutex
	episodes []model.Episode
}

func (m *memRecorder) RecordEpisode(_ context.Context, e model.Episode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodes = append(m.episodes, e)
	return nil
}

var dayPrayers = []model.Prayer{
	prayer.NewPrayer(model.Fajr, 4, 12),
	prayer.NewPrayer(model.Dhuhr, 11, 58),
	prayer.NewPrayer(model.Asr, 15, 20),
	prayer.NewPrayer(model.Maghrib, 18, 21),
	prayer.NewPrayer(model.Isha, 19, 51),
}

type fixture struct {
	kv       *prefs.MemoryKV
	store    *prefs.Store
	times    *fakeTimes
	player   *fakePlayer
	dialog   *fakeDialog
	recorder *memRecorder
	poller   *Poller

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		kv:       prefs.NewMemoryKV(),
		times:    &fakeTimes{prayers: dayPrayers},
		player:   &fakePlayer{},
		dialog:   &fakeDialog{choice: device.ChoiceDismissed},
		recorder: &memRecorder{},
		now:      now,
	}
	f.store = prefs.NewStore(f.kv)
	require.NoError(t, f.store.SetCoordinates(context.Background(), prefs.KeyLatitude, prefs.KeyLongitude, 24.7, 46.7))

	locator := location.Static{Location: model.Location{Latitude: 1, Longitude: 2}}
	f.poller = NewPoller(f.store, f.times, locator, f.player, f.dialog, DefaultConfig(),
		WithClock(f.clock), WithRecorder(f.recorder))
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setClock(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

func at(h, m int) time.Time {
	return time.Date(2025, 8, 5, h, m, 7, 0, time.Local)
}

func TestTick_EachPrayerStartsOneEpisode(t *testing.T) {
	for _, pr := range dayPrayers {
		t.Run(string(pr.Name), func(t *testing.T) {
			f := newFixture(t, at(pr.Hour, pr.Minute))
			ctx := context.Background()

			matched, err := f.poller.Tick(ctx)
			require.NoError(t, err)
			require.NotNil(t, matched)
			assert.Equal(t, pr.Name, matched.Name)

			f.poller.Wait()

			played, _ := f.player.snapshot()
			assert.Len(t, played, 1)

			playing, present, err := f.store.Playing(ctx)
			require.NoError(t, err)
			assert.True(t, present)
			assert.True(t, playing)

			require.Len(t, f.dialog.prompts, 1)
			assert.Equal(t, promptMessages[pr.Name], f.dialog.prompts[0].Message)
			assert.Equal(t, promptTitle, f.dialog.prompts[0].Title)
			assert.Equal(t, []string{buttonStop, buttonExit}, f.dialog.prompts[0].Buttons)
		})
	}
}

func TestTick_ClipSelection(t *testing.T) {
	f := newFixture(t, at(4, 12))
	_, err := f.poller.Tick(context.Background())
	require.NoError(t, err)
	f.poller.Wait()

	played, _ := f.player.snapshot()
	assert.Equal(t, []string{FajrClip}, played)

	g := newFixture(t, at(18, 21))
	_, err = g.poller.Tick(context.Background())
	require.NoError(t, err)
	g.poller.Wait()

	played, _ = g.player.snapshot()
	assert.Equal(t, []string{DefaultClip}, played)
}

func TestTick_AlreadyPlayingDoesNothing(t *testing.T) {
	f := newFixture(t, at(11, 58))
	ctx := context.Background()
	require.NoError(t, f.store.SetPlaying(ctx, true))

	matched, err := f.poller.Tick(ctx)
	require.NoError(t, err)
	assert.Nil(t, matched)

	played, _ := f.player.snapshot()
	assert.Empty(t, played)
}

func TestTick_SecondPollInSameMinuteIsSuppressed(t *testing.T) {
	f := newFixture(t, at(15, 20))
	ctx := context.Background()

	_, err := f.poller.Tick(ctx)
	require.NoError(t, err)
	f.setClock(at(15, 20).Add(5 * time.Second))
	matched, err := f.poller.Tick(ctx)
	require.NoError(t, err)
	assert.Nil(t, matched)

	f.poller.Wait()
	played, _ := f.player.snapshot()
	assert.Len(t, played, 1)
}

func TestTick_NoMatch(t *testing.T) {
	f := newFixture(t, at(13, 0))
	ctx := context.Background()

	matched, err := f.poller.Tick(ctx)
	require.NoError(t, err)
	assert.Nil(t, matched)

	playing, present, err := f.store.Playing(ctx)
	require.NoError(t, err)
	assert.True(t, present, "first tick initializes the flag")
	assert.False(t, playing)
}

func TestTick_UsesStoredMethodOrDefault(t *testing.T) {
	f := newFixture(t, at(13, 0))
	ctx := context.Background()

	_, err := f.poller.Tick(ctx)
	require.NoError(t, err)
	require.NoError(t, f.kv.Set(ctx, prefs.KeyCalculation, "Egyptian"))
	_, err = f.poller.Tick(ctx)
	require.NoError(t, err)

	calls := f.times.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, prefs.DefaultCalculation, calls[0].Method)
	assert.Equal(t, "Egyptian", calls[1].Method)
	assert.InDelta(t, 24.7, calls[1].Latitude, 1e-9)
}

func TestTick_ProviderErrorAbortsOnlyThatTick(t *testing.T) {
	f := newFixture(t, at(4, 12))
	f.times.err = errors.New("upstream down")

	_, err := f.poller.Tick(context.Background())
	assert.Error(t, err)

	f.times.err = nil
	matched, err := f.poller.Tick(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, matched)
	f.poller.Wait()
}

func TestPrompt_StopRewindsAndRecords(t *testing.T) {
	f := newFixture(t, at(19, 51))
	f.dialog.choice = device.ChoiceStopped

	_, err := f.poller.Tick(context.Background())
	require.NoError(t, err)
	f.poller.Wait()

	_, stops := f.player.snapshot()
	assert.Equal(t, 1, stops)

	require.Len(t, f.recorder.episodes, 1)
	e := f.recorder.episodes[0]
	assert.Equal(t, "isha", e.Prayer)
	assert.Equal(t, "7:51 PM", e.Scheduled)
	assert.Equal(t, "stopped", e.Outcome)
	assert.NotEmpty(t, e.ID)
}

func TestPrompt_ExitKeepsPlaying(t *testing.T) {
	f := newFixture(t, at(19, 51))

	_, err := f.poller.Tick(context.Background())
	require.NoError(t, err)
	f.poller.Wait()

	_, stops := f.player.snapshot()
	assert.Zero(t, stops)
	require.Len(t, f.recorder.episodes, 1)
	assert.Equal(t, "dismissed", f.recorder.episodes[0].Outcome)
}

func TestResetPlayback(t *testing.T) {
	f := newFixture(t, at(4, 12))
	ctx := context.Background()

	require.NoError(t, f.poller.ResetPlayback(ctx))
	playing, present, err := f.store.Playing(ctx)
	require.NoError(t, err)
	assert.True(t, present)
	assert.False(t, playing)

	_, err = f.poller.Tick(ctx)
	require.NoError(t, err)
	f.poller.Wait()
	playing, _, _ = f.store.Playing(ctx)
	assert.True(t, playing)

	require.NoError(t, f.poller.ResetPlayback(ctx))
	playing, _, _ = f.store.Playing(ctx)
	assert.False(t, playing)
}

func TestStart_FetchesMissingCoordinatesOnce(t *testing.T) {
	kv := prefs.NewMemoryKV()
	store := prefs.NewStore(kv)
	times := &fakeTimes{prayers: dayPrayers}
	locator := &countingLocator{loc: model.Location{Latitude: 24.7, Longitude: 46.7, Timezone: "Asia/Riyadh"}}
	p := NewPoller(store, times, locator, &fakePlayer{}, &fakeDialog{}, DefaultConfig(), WithClock(func() time.Time { return at(13, 0) }))
	ctx := context.Background()

	enabled, err := p.Start(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 1, locator.calls)

	lat, _, _ := kv.Get(ctx, prefs.KeyLatitude)
	lon, _, _ := kv.Get(ctx, prefs.KeyLongitude)
	assert.Equal(t, "24.7", lat)
	assert.Equal(t, "46.7", lon)

	_, err = p.Tick(ctx)
	require.NoError(t, err)
	calls := times.calls()
	require.Len(t, calls, 1)
	assert.InDelta(t, 24.7, calls[0].Latitude, 1e-9)
	assert.InDelta(t, 46.7, calls[0].Longitude, 1e-9)

	_, err = p.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, locator.calls)
}

func TestStart_LocateFailureIsReturned(t *testing.T) {
	store := prefs.NewStore(prefs.NewMemoryKV())
	locator := &countingLocator{err: location.ErrUnavailable}
	p := NewPoller(store, &fakeTimes{}, locator, &fakePlayer{}, &fakeDialog{}, DefaultConfig())

	_, err := p.Start(context.Background())
	assert.ErrorIs(t, err, location.ErrUnavailable)
}

func TestStart_NotificationToggle(t *testing.T) {
	cases := map[string]bool{
		"false": false,
		"0":     false,
		"true":  true,
		"":      true,
	}
	for stored, want := range cases {
		f := newFixture(t, at(4, 12))
		require.NoError(t, f.kv.Set(context.Background(), prefs.KeyNotification, stored))

		enabled, err := f.poller.Start(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, enabled, "notification=%q", stored)
	}
}

func TestRun_DisabledNeverStartsTimers(t *testing.T) {
	f := newFixture(t, at(4, 12))
	require.NoError(t, f.kv.Set(context.Background(), prefs.KeyNotification, "false"))

	done := make(chan error, 1)
	go func() { done <- f.poller.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when notifications are off")
	}
	assert.Empty(t, f.times.calls())
}

func TestRun_PollsUntilCancelled(t *testing.T) {
	f := newFixture(t, at(4, 12))
	cfg := Config{PollInterval: 5 * time.Millisecond, GuardInterval: time.Hour}
	f.poller = NewPoller(f.store, f.times, location.Static{}, f.player, f.dialog, cfg,
		WithClock(f.clock), WithRecorder(f.recorder))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.poller.Run(ctx) }()

	require.Eventually(t, func() bool {
		played, _ := f.player.snapshot()
		return len(played) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	played, _ := f.player.snapshot()
	assert.Len(t, played, 1, "flag blocks repeats until the guard clears it")
}

type countingLocator struct {
	loc   model.Location
	err   error
	calls int
}

func (c *countingLocator) Locate(context.Context) (*model.Location, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	loc := c.loc
	return &loc, nil
}

func TestToday_UsesPollerKeys(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, prefs.KeyCalculation, "Karachi"))

	times, err := f.poller.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Asr, times.Next)

	calls := f.times.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Karachi", calls[0].Method)
	assert.Equal(t, 24.7, calls[0].Latitude)
}

func TestToday_NoCoordinates(t *testing.T) {
	f := newFixture(t, at(12, 0))
	ctx := context.Background()
	f.kv.Delete(ctx, prefs.KeyLatitude)

	_, err := f.poller.Today(ctx)
	assert.ErrorIs(t, err, ErrNoCoordinates)
	assert.Empty(t, f.times.calls())
}

// stuckPlayer never acknowledges playback; Play returns only when ctx ends.
type stuckPlayer struct {
	mu      sync.Mutex
	started int
}

func (s *stuckPlayer) Play(ctx context.Context, _ string) error {
	s.mu.Lock()
	s.started++
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (s *stuckPlayer) Stop(context.Context) error { return nil }

func (s *stuckPlayer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// silentDialog is a prompt nobody answers.
type silentDialog struct{}

func (silentDialog) Confirm(ctx context.Context, _ device.Prompt) (device.Choice, error) {
	<-ctx.Done()
	return device.ChoiceDismissed, nil
}

func TestTick_ReturnsWhilePlayIsPending(t *testing.T) {
	f := newFixture(t, at(4, 12))
	player := &stuckPlayer{}
	cfg := DefaultConfig()
	cfg.DeviceTimeout = 20 * time.Millisecond
	f.poller = NewPoller(f.store, f.times, location.Static{}, player, f.dialog, cfg,
		WithClock(f.clock), WithRecorder(f.recorder))

	done := make(chan struct{})
	go func() {
		defer close(done)
		matched, err := f.poller.Tick(context.Background())
		assert.NoError(t, err)
		assert.NotNil(t, matched)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Tick waited on the device")
	}

	f.poller.Wait()
	assert.Equal(t, 1, player.count())
	assert.Empty(t, f.dialog.prompts, "no prompt when playback never started")
	assert.Empty(t, f.recorder.episodes)

	playing, _, err := f.store.Playing(context.Background())
	require.NoError(t, err)
	assert.True(t, playing, "flag stays set until the guard clears it")
}

func TestRun_GuardKeepsRunningWhileDeviceHangs(t *testing.T) {
	f := newFixture(t, at(4, 12))
	player := &stuckPlayer{}
	cfg := Config{
		PollInterval:  5 * time.Millisecond,
		GuardInterval: 20 * time.Millisecond,
		DeviceTimeout: time.Hour,
		PromptTimeout: time.Hour,
	}
	f.poller = NewPoller(f.store, f.times, location.Static{}, player, f.dialog, cfg,
		WithClock(f.clock), WithRecorder(f.recorder))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.poller.Run(ctx) }()

	// A second play in the same minute is only possible after the guard cleared the flag.
	require.Eventually(t, func() bool { return player.count() >= 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestPrompt_UnansweredIsDismissedAfterTimeout(t *testing.T) {
	f := newFixture(t, at(18, 21))
	cfg := DefaultConfig()
	cfg.PromptTimeout = 20 * time.Millisecond
	f.poller = NewPoller(f.store, f.times, location.Static{}, f.player, silentDialog{}, cfg,
		WithClock(f.clock), WithRecorder(f.recorder))

	_, err := f.poller.Tick(context.Background())
	require.NoError(t, err)

	waited := make(chan struct{})
	go func() {
		f.poller.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("unanswered prompt was never closed")
	}

	_, stops := f.player.snapshot()
	assert.Zero(t, stops)
	require.Len(t, f.recorder.episodes, 1)
	assert.Equal(t, "dismissed", f.recorder.episodes[0].Outcome)
}

func TestNewPoller_FillsTimeouts(t *testing.T) {
	p := NewPoller(prefs.NewStore(prefs.NewMemoryKV()), &fakeTimes{}, location.Static{}, &fakePlayer{}, &fakeDialog{},
		Config{PollInterval: time.Second, GuardInterval: time.Second})
	assert.Equal(t, DefaultDeviceTimeout, p.cfg.DeviceTimeout)
	assert.Equal(t, DefaultPromptTimeout, p.cfg.PromptTimeout)
}
