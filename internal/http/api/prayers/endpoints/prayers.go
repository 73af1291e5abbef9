package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/prayers/packets"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/notifier"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
)

// TimesSource computes today's timings for the device, e.g. *notifier.Poller.
type TimesSource interface {
	Today(ctx context.Context) (*model.PrayerTimes, error)
}

// PrayersModule mounts GET /prayers/today
func PrayersModule(source TimesSource) api.Module {
	ctl := &PrayersController{source: source, now: time.Now}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/prayers/today", ctl.today)
	})
}

// HistoryModule mounts GET /history
func HistoryModule(store db.Store) api.Module {
	ctl := &HistoryController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/history", ctl.list)
	})
}

type PrayersController struct {
	source TimesSource
	now    func() time.Time
}

// GET /api/prayers/today
func (p *PrayersController) today(ctx *gin.Context) (any, *api.Error) {
	times, err := p.source.Today(ctx.Request.Context())
	if errors.Is(err, notifier.ErrNoCoordinates) {
		return nil, &api.Error{Code: http.StatusConflict, Message: "device location is not set"}
	}
	if errors.Is(err, prayer.ErrUnknownMethod) {
		return nil, &api.Error{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to compute prayer times")
		return nil, &api.Error{Code: http.StatusBadGateway, Message: "failed to get prayer times"}
	}

	return packets.TodayResponse{
		Date:    times.Date,
		Clock:   prayer.FormatClock(p.now()),
		Next:    times.Next,
		Prayers: times.Prayers,
	}, nil
}

type HistoryController struct {
	store db.Store
}

// GET /api/history?limit=N
func (h *HistoryController) list(ctx *gin.Context) (any, *api.Error) {
	limit := db.DefaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, api.BadRequest("limit must be a number")
		}
		limit = n
	}

	episodes, err := h.store.ListEpisodes(ctx.Request.Context(), limit)
	if err != nil {
		return nil, api.Internal("could not list history")
	}
	return packets.HistoryResponse{Episodes: episodes}, nil
}
