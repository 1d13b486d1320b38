package telemetry

import (
	"math"
	"sort"

	"codeberg.org/mutker/powermon/internal/errors"
)

// Validate rejects measurements no sink can encode.
func (m Measurement) Validate() error {
	errFactory := errors.New()

	if m.Name == "" {
		return errFactory.WithMessage(ErrInvalidMeasurement, "measurement name is empty")
	}
	if len(m.Fields) == 0 {
		return errFactory.WithData(ErrInvalidMeasurement, m.Name+" has no fields")
	}
	for k, v := range m.Fields {
		if k == "" {
			return errFactory.WithData(ErrInvalidMeasurement, m.Name+" has an empty field name")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errFactory.WithData(ErrInvalidMeasurement, m.Name+"."+k+" is not finite")
		}
	}
	return nil
}

// WithTags returns a copy of m with tags merged in; tags already on m win.
func (m Measurement) WithTags(tags map[string]string) Measurement {
	if len(tags) == 0 {
		return m
	}
	merged := make(map[string]string, len(tags)+len(m.Tags))
	for k, v := range tags {
		merged[k] = v
	}
	for k, v := range m.Tags {
		merged[k] = v
	}
	m.Tags = merged
	return m
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
