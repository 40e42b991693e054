package validators

import (
	"errors"
	"math"
)

var (
	ErrTemperatureMissing = errors.New("temperature is required")
	ErrHumidityMissing    = errors.New("humidity is required")
	ErrNotFinite          = errors.New("temperature and humidity must be finite numbers")
)

// ReadingValidator checks a submitted sample. Pointers distinguish a
// missing field from a legitimate zero.
func ReadingValidator(temperature, humidity *float64) error {
	if temperature == nil {
		return ErrTemperatureMissing
	}

	if humidity == nil {
		return ErrHumidityMissing
	}

	for _, v := range []float64{*temperature, *humidity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNotFinite
		}
	}

	return nil
}
