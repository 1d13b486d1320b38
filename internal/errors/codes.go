package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Acquisition errors
	ErrAcquisition ErrorCode = "acquisition_failed"
	ErrShortBuffer ErrorCode = "acquisition_short_buffer"

	// Pipeline errors
	ErrInvalidFrame ErrorCode = "pipeline_invalid_frame"

	// Telemetry errors
	ErrSendFailed         ErrorCode = "telemetry_send_failed"
	ErrInvalidMeasurement ErrorCode = "telemetry_invalid_measurement"

	// Application errors
	ErrMainLoop ErrorCode = "main_loop_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrAlreadyRunning:     "Another instance is already running",
	ErrInvalidConfig:      "Invalid configuration",
	ErrReadConfig:         "Failed to read config file",
	ErrBindFlags:          "Failed to bind flags",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInitFailed:         "Initialization failed",
	ErrShutdownFailed:     "Shutdown failed",
	ErrAcquisition:        "Failed to acquire samples",
	ErrShortBuffer:        "Sample buffer is short",
	ErrInvalidFrame:       "Invalid sample frame",
	ErrSendFailed:         "Failed to send measurement",
	ErrInvalidMeasurement: "Invalid measurement",
	ErrMainLoop:           "Error in main loop",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
