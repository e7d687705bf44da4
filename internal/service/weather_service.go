package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/conghuan0502/planzaa-api/internal/dto"
	"github.com/conghuan0502/planzaa-api/internal/models"
	"github.com/conghuan0502/planzaa-api/pkg/config"
	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
)

type weatherEventGetter interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
}

type weatherCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// WeatherService proxies an external forecast API for event venues,
// read-through cached in Redis.
type WeatherService struct {
	events weatherEventGetter
	cache  weatherCache
	client *http.Client
	logger *zap.Logger
	cfg    config.WeatherConfig
}

// NewWeatherService constructs the weather proxy.
func NewWeatherService(events weatherEventGetter, cache weatherCache, logger *zap.Logger, cfg config.WeatherConfig) *WeatherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WeatherService{
		events: events,
		cache:  cache,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		cfg:    cfg,
	}
}

// ForecastForEvent resolves the event's venue to coordinates and returns
// the forecast for the event's start day.
func (s *WeatherService) ForecastForEvent(ctx context.Context, eventID string) (*dto.EventWeather, error) {
	cacheKey := "weather:events:" + eventID
	if s.cache != nil {
		var cached dto.EventWeather
		err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Sugar().Warnw("weather cache lookup failed", "event_id", eventID, "error", err)
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.Venue == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event has no venue to geocode")
	}

	lat, lon, err := s.geocode(ctx, event.Venue)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to geocode venue")
	}

	date := event.StartAt.UTC().Format("2006-01-02")
	forecast, err := s.forecast(ctx, lat, lon, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch forecast")
	}

	result := &dto.EventWeather{
		EventID:        event.ID,
		Venue:          event.Venue,
		Latitude:       lat,
		Longitude:      lon,
		Date:           date,
		TemperatureMin: forecast.min,
		TemperatureMax: forecast.max,
		Precipitation:  forecast.precipitation,
		WeatherCode:    forecast.code,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cfg.CacheTTL); err != nil {
			s.logger.Sugar().Warnw("weather cache store failed", "event_id", eventID, "error", err)
		}
	}
	return result, nil
}

type geocodeResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

func (s *WeatherService) geocode(ctx context.Context, venue string) (float64, float64, error) {
	query := url.Values{}
	query.Set("name", venue)
	query.Set("count", "1")

	var decoded geocodeResponse
	if err := s.getJSON(ctx, s.cfg.GeocodeURL+"?"+query.Encode(), &decoded); err != nil {
		return 0, 0, err
	}
	if len(decoded.Results) == 0 {
		return 0, 0, fmt.Errorf("no geocoding match for %q", venue)
	}
	return decoded.Results[0].Latitude, decoded.Results[0].Longitude, nil
}

type forecastResponse struct {
	Daily struct {
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		Precipitation  []float64 `json:"precipitation_sum"`
		WeatherCode    []int     `json:"weather_code"`
	} `json:"daily"`
}

type dailyForecast struct {
	min, max, precipitation float64
	code                    int
}

func (s *WeatherService) forecast(ctx context.Context, lat, lon float64, date string) (*dailyForecast, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", lat))
	query.Set("longitude", fmt.Sprintf("%.4f", lon))
	query.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weather_code")
	query.Set("start_date", date)
	query.Set("end_date", date)
	query.Set("timezone", "UTC")

	var decoded forecastResponse
	if err := s.getJSON(ctx, s.cfg.ForecastURL+"?"+query.Encode(), &decoded); err != nil {
		return nil, err
	}
	daily := decoded.Daily
	if len(daily.TemperatureMax) == 0 || len(daily.TemperatureMin) == 0 {
		return nil, fmt.Errorf("forecast response missing daily series for %s", date)
	}

	result := &dailyForecast{
		min: daily.TemperatureMin[0],
		max: daily.TemperatureMax[0],
	}
	if len(daily.Precipitation) > 0 {
		result.precipitation = daily.Precipitation[0]
	}
	if len(daily.WeatherCode) > 0 {
		result.code = daily.WeatherCode[0]
	}
	return result, nil
}

func (s *WeatherService) getJSON(ctx context.Context, rawURL string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("weather api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather api returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode weather response: %w", err)
	}
	return nil
}
