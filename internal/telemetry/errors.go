package telemetry

import "codeberg.org/mutker/powermon/internal/errors"

const (
	ErrInvalidMeasurement = errors.ErrInvalidMeasurement
	ErrSendFailed         = errors.ErrSendFailed
	ErrInvalidConfig      = errors.ErrorCode("telemetry_invalid_config")
	ErrServiceShutdown    = errors.ErrShutdownFailed
)
