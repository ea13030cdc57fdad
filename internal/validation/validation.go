package validation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

// ErrInvalidResourceURI is returned when a resource URI does not match the
// weather://{city}/current shape.
var ErrInvalidResourceURI = errors.New("invalid weather resource URI")

// ErrCityRequired is returned when forecast arguments omit the city.
var ErrCityRequired = errors.New("city is required")

// currentWeatherURI matches weather://{city}/current, accepting both the
// host form (weather://Tokyo/current) and the empty-host path form
// (weather:///San%20Francisco/current) used for cities whose escapes are
// not valid in a URL host. The city segment is matched greedily so cities
// containing slashes survive percent-encoding.
var currentWeatherURI = regexp.MustCompile(`^weather:///?(.+)/current$`)

// ParseCurrentWeatherURI extracts and URL-decodes the city segment from a
// weather://{city}/current URI. The decoded city is returned verbatim: no
// trimming, no case normalization.
func ParseCurrentWeatherURI(uri string) (string, error) {
	m := currentWeatherURI.FindStringSubmatch(uri)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidResourceURI, uri)
	}
	city, err := url.PathUnescape(m[1])
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidResourceURI, uri)
	}
	return city, nil
}

// ValidateForecastCity checks the one argument the forecast tool requires.
// Type-level checks only: the city string itself is passed to the upstream
// verbatim.
func ValidateForecastCity(city string) error {
	if city == "" {
		return ErrCityRequired
	}
	return nil
}
