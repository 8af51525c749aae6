package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig     ErrorCode = "invalid_configuration"
	ErrReadConfig        ErrorCode = "read_config_failed"
	ErrInvalidInterval   ErrorCode = "invalid_interval"
	ErrInvalidTimeout    ErrorCode = "invalid_timeout"
	ErrInvalidDeviceType ErrorCode = "invalid_device_type"
	ErrInvalidColorSpec  ErrorCode = "invalid_color_spec"
	ErrInvalidLogLevel   ErrorCode = "invalid_log_level"

	// Connection errors
	ErrConnectionRefused ErrorCode = "connection_refused"
	ErrConnectionTimeout ErrorCode = "connection_timeout"
	ErrConnectionClosed  ErrorCode = "connection_closed"
	ErrVersionMismatch   ErrorCode = "connection_version_mismatch"

	// Protocol errors
	ErrProtocolMalformed ErrorCode = "protocol_malformed"
	ErrProtocolTruncated ErrorCode = "protocol_truncated"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Application errors
	ErrInitApp  ErrorCode = "init_app_failed"
	ErrMainLoop ErrorCode = "main_loop_failed"

	// Metrics errors
	ErrInitMetrics    ErrorCode = "init_metrics_failed"
	ErrCollectMetrics ErrorCode = "collect_metrics_failed"
	ErrCloseMetrics   ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrInvalidConfig:     "Invalid configuration",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidTimeout:    "Invalid timeout value",
	ErrInvalidDeviceType: "Unknown device type",
	ErrInvalidColorSpec:  "Invalid default color specification",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrConnectionRefused: "Server connection refused",
	ErrConnectionTimeout: "Server connection timed out",
	ErrConnectionClosed:  "Server connection closed",
	ErrVersionMismatch:   "Unsupported server protocol version",
	ErrProtocolMalformed: "Malformed protocol message",
	ErrProtocolTruncated: "Truncated protocol message",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrInitApp:           "Failed to initialize application",
	ErrMainLoop:          "Error in main loop",
	ErrInitMetrics:       "Failed to initialize metrics",
	ErrCollectMetrics:    "Failed to collect metrics data",
	ErrCloseMetrics:      "Failed to close metrics connection",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
