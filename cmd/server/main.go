package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/device"
	"github.com/Nixie-Tech-LLC/athan/internal/notifier"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
	"github.com/Nixie-Tech-LLC/athan/internal/settings"
)

func main() {
	cfg := LoadEnvironment()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend := InitBackend(ctx, cfg)
	defer closeBackend()
	store := prefs.NewStore(backend)

	history := InitHistory(cfg)

	// device bridge over MQTT
	transport, err := device.NewMQTTTransport(cfg.MQTTBrokerURL, "athan-server-"+cfg.DeviceID, cfg.DeviceTimeout)
	if err != nil {
		log.Fatal().Err(err).Str("broker", cfg.MQTTBrokerURL).Msg("mqtt connect")
	}
	defer transport.Close()
	bridge := device.NewBridge(transport, cfg.DeviceID)
	if err := bridge.Start(); err != nil {
		log.Fatal().Err(err).Msg("device bridge")
	}

	locator := InitLocator(cfg)
	times := prayer.NewCachedProvider(prayer.NewAladhanClient(cfg.AladhanURL, 10*time.Second), backend)

	opts := []notifier.Option{}
	if history != nil {
		opts = append(opts, notifier.WithRecorder(history))
	}
	poller := notifier.NewPoller(store, times, locator, bridge, bridge, notifier.Config{
		PollInterval:  cfg.PollInterval,
		GuardInterval: cfg.GuardInterval,
		DeviceTimeout: cfg.DeviceTimeout,
		PromptTimeout: cfg.PromptTimeout,
	}, opts...)

	sc := settings.New(store, locator, bridge, settings.LogReporter{}, nil)

	r := gin.Default()
	RegisterRoutes(r, cfg, Services{
		Store:    store,
		Settings: sc,
		Poller:   poller,
		History:  history,
	}, LoadTemplates(cfg.TemplatesGlob))

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		if err := poller.Run(ctx); err != nil {
			log.Error().Err(err).Msg("adhan poller stopped")
		}
	}()

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	<-pollerDone
}
