package bier

// Environment variable names read by LoadConfigFromEnvironment.
const (
	// EnvDefaultLengthType names the integer kind used for length prefixes
	// of fields that declare none, e.g. "u16".
	EnvDefaultLengthType = "BIER_DEFAULT_LENGTH_TYPE"

	// EnvDecodePolicy is strict, replace or raw.
	EnvDecodePolicy = "BIER_DECODE_POLICY"

	// EnvMaxLength caps length prefixes read from a stream. A negative value
	// disables it.
	EnvMaxLength = "BIER_MAX_LENGTH"

	// EnvLogging turns on the logging hook when set to a true value.
	EnvLogging = "BIER_LOGGING"
)

// Default values.
const (
	DefaultLengthTypeName = "u32"
	DefaultDecodePolicy   = "strict"

	// DefaultMaxLength is 16 MiB.
	DefaultMaxLength = 16 << 20
)
