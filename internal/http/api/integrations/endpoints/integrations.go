package endpoints

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/prefs"
)

const AthanTemplate = "athan.html"

// TimesSource computes today's timings for the device.
type TimesSource interface {
	Today(ctx context.Context) (*model.PrayerTimes, error)
}

// IntegrationsModule mounts GET /integrations/:name
func IntegrationsModule(source TimesSource, store *prefs.Store) api.Module {
	ctl := &IntegrationsController{source: source, store: store, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/integrations/:name", ctl.serveIntegration)
	})
}

type IntegrationsController struct {
	source TimesSource
	store  *prefs.Store
	now    func() time.Time
}

func (i *IntegrationsController) serveIntegration(ctx *gin.Context) {
	switch ctx.Param("name") {
	case "athan":
		i.serveAthan(ctx)
	default:
		ctx.String(http.StatusNotFound, "integration not found")
	}
}

func (i *IntegrationsController) serveAthan(ctx *gin.Context) {
	times, err := i.source.Today(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("athan integration: prayer times")
		ctx.String(http.StatusInternalServerError, "failed to get prayer times")
		return
	}

	tz, err := i.store.StringOr(ctx.Request.Context(), prefs.KeyTimezoneSettings, "")
	if err != nil {
		log.Warn().Err(err).Msg("athan integration: timezone")
	}

	ctx.HTML(http.StatusOK, AthanTemplate, model.AthanPageData{
		City:    CityFromTimezone(tz),
		Date:    strings.ToUpper(i.now().Format("January 2, 2006")),
		Next:    string(times.Next),
		Prayers: times.Prayers,
	})
}

// CityFromTimezone turns "America/Chicago" into "CHICAGO". An empty zone gives "".
func CityFromTimezone(tz string) string {
	if tz == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(path.Base(tz), "_", " "))
}
