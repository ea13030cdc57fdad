package models

// WeatherSnapshot is the normalized current-conditions shape served to MCP
// clients for resource reads. It is derived from the upstream response; the
// timestamp is generated at read time, not taken from upstream.
type WeatherSnapshot struct {
	Temperature float64 `json:"temperature"`
	Conditions  string  `json:"conditions"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Timestamp   string  `json:"timestamp"`
}

// CurrentConditions mirrors the fields of the OpenWeatherMap current-weather
// response that the service normalizes into a WeatherSnapshot.
type CurrentConditions struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}
