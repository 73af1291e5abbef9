package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/settings/packets"
	"github.com/Nixie-Tech-LLC/athan/internal/model"
	"github.com/Nixie-Tech-LLC/athan/internal/settings"
)

const PageTemplate = "settings.html"

// SettingsModule mounts the settings API (/, /save, /location/refresh, /themes/:id, /back)
func SettingsModule(sc *settings.Context) api.Module {
	ctl := newSettingsController(sc)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/", ctl.getForm)
		c.POST("/save", ctl.save)
		c.POST("/location/refresh", ctl.refreshLocation)
		c.POST("/themes/:id", ctl.selectTheme)
		c.Group.GET("/back", ctl.back)
	})
}

// PageModule mounts the rendered settings page at settings.PagePath. With
// hideLocation the page is rendered without coordinates and timezone; the page
// script loads them from the authenticated API instead.
func PageModule(sc *settings.Context, hideLocation bool) api.Module {
	ctl := newSettingsController(sc)
	ctl.hideLocation = hideLocation
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET(settings.PagePath, ctl.page)
	})
}

type SettingsController struct {
	settings     *settings.Context
	hideLocation bool
}

func newSettingsController(sc *settings.Context) *SettingsController {
	return &SettingsController{settings: sc}
}

// GET /api/settings/
func (s *SettingsController) getForm(ctx *gin.Context) (any, *api.Error) {
	form, err := s.settings.Form(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load settings form")
		return nil, api.Internal("could not load settings")
	}
	return form, nil
}

// POST /api/settings/save
func (s *SettingsController) save(ctx *gin.Context) (any, *api.Error) {
	var request model.SettingsInput
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	result, err := s.settings.Save(ctx.Request.Context(), request)
	if err != nil {
		log.Error().Err(err).Msg("failed to save settings")
		return nil, api.Internal("could not save settings")
	}
	return result, nil
}

// POST /api/settings/location/refresh
func (s *SettingsController) refreshLocation(ctx *gin.Context) (any, *api.Error) {
	result, err := s.settings.RefreshLocation(ctx.Request.Context())
	if err != nil {
		return nil, &api.Error{Code: http.StatusBadGateway, Message: "could not refresh location"}
	}
	return result, nil
}

// POST /api/settings/themes/:id
func (s *SettingsController) selectTheme(ctx *gin.Context) (any, *api.Error) {
	themes, err := s.settings.SelectTheme(ctx.Param("id"))
	if errors.Is(err, settings.ErrUnknownTheme) {
		return nil, &api.Error{Code: http.StatusNotFound, Message: err.Error()}
	}
	if err != nil {
		return nil, api.Internal(err.Error())
	}
	return packets.ThemesResponse{Themes: themes}, nil
}

// GET /api/settings/back
func (s *SettingsController) back(ctx *gin.Context) {
	ctx.Redirect(http.StatusFound, settings.BackPath)
}

// GET /pages/settings.html
func (s *SettingsController) page(ctx *gin.Context) {
	form, err := s.settings.Form(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to render settings page")
		ctx.String(http.StatusInternalServerError, "failed to load settings")
		return
	}
	if s.hideLocation {
		form.Latitude, form.Longitude, form.Timezone = "", "", ""
	}
	ctx.HTML(http.StatusOK, PageTemplate, packets.SettingsPage{
		Form:            form,
		Alert:           ctx.Query("alert"),
		LocationFromAPI: s.hideLocation,
	})
}
