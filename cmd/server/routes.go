package main

import (
	"html/template"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	authapi "github.com/Nixie-Tech-LLC/athan/internal/http/api/auth/endpoints"
	integrationsapi "github.com/Nixie-Tech-LLC/athan/internal/http/api/integrations/endpoints"
	prayersapi "github.com/Nixie-Tech-LLC/athan/internal/http/api/prayers/endpoints"
	settingsapi "github.com/Nixie-Tech-LLC/athan/internal/http/api/settings/endpoints"
	"github.com/Nixie-Tech-LLC/athan/internal/notifier"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
	"github.com/Nixie-Tech-LLC/athan/internal/settings"
)

// Services are the components the routes serve.
type Services struct {
	Store    *prefs.Store
	Settings *settings.Context
	Poller   *notifier.Poller
	History  db.Store // nil when history is disabled
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, cfg *config.Config, svc Services, tmpl *template.Template) {
	r.SetHTMLTemplate(tmpl)
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	if cfg.AuthEnabled() {
		api.MountGroup(r, api.GroupConfig{
			Prefix: "/api",
		},
			authapi.AuthPublicModule(cfg.JWTSecret, cfg.AdminPasswordHash),
		)
	}

	protected := api.GroupConfig{
		Prefix:    "/api",
		Auth:      cfg.AuthEnabled(),
		SecretKey: cfg.JWTSecret,
	}
	modules := []api.Module{
		prayersapi.PrayersModule(svc.Poller),
	}
	if svc.History != nil {
		modules = append(modules, prayersapi.HistoryModule(svc.History))
	}
	if cfg.AuthEnabled() {
		modules = append(modules, authapi.AuthSessionModule(cfg.JWTSecret, cfg.AdminPasswordHash))
	}
	api.MountGroup(r, protected, modules...)

	settingsGroup := protected
	settingsGroup.Prefix = "/api/settings"
	api.MountGroup(r, settingsGroup, settingsapi.SettingsModule(svc.Settings))

	// Pages
	api.MountGroup(r, api.GroupConfig{},
		settingsapi.PageModule(svc.Settings, cfg.AuthEnabled()),
		integrationsapi.IntegrationsModule(svc.Poller, svc.Store),
	)

	// Static content
	r.Static("/mp3", cfg.AudioDir)
}
