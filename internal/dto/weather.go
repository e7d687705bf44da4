package dto

// EventWeather summarises the forecast at an event's venue for its start day.
type EventWeather struct {
	EventID        string  `json:"event_id"`
	Venue          string  `json:"venue"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Date           string  `json:"date"`
	TemperatureMin float64 `json:"temperature_min"`
	TemperatureMax float64 `json:"temperature_max"`
	Precipitation  float64 `json:"precipitation_mm"`
	WeatherCode    int     `json:"weather_code"`
}
