// Package location reports where the device is.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Nixie-Tech-LLC/athan/internal/model"
)

var ErrUnavailable = errors.New("location unavailable")

type Provider interface {
	Locate(ctx context.Context) (*model.Location, error)
}

const DefaultIPAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,timezone"

// IPClient geolocates the device by its public address.
type IPClient struct {
	url     string
	http    *http.Client
	limiter *rate.Limiter
}

// NewIPClient builds a client limited to perMinute lookups, the free ip-api.com tier is 45.
func NewIPClient(url string, timeout time.Duration, perMinute int) *IPClient {
	if url == "" {
		url = DefaultIPAPIURL
	}
	if perMinute <= 0 {
		perMinute = 45
	}
	return &IPClient{
		url:     url,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (c *IPClient) Locate(ctx context.Context) (*model.Location, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("location rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("ip geolocation request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Status   string  `json:"status"`
		Message  string  `json:"message"`
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		Timezone string  `json:"timezone"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	if !strings.EqualFold(body.Status, "success") {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, body.Message)
	}

	return &model.Location{Latitude: body.Lat, Longitude: body.Lon, Timezone: body.Timezone}, nil
}

// Static always reports the configured location.
type Static struct {
	Location model.Location
}

func (s Static) Locate(context.Context) (*model.Location, error) {
	loc := s.Location
	return &loc, nil
}
