package types

// redactedPlaceholder replaces secret values anywhere a SecretString is
// formatted or serialized.
const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString holds a sensitive value (the store DSN, credentials) that
// must never appear in logs or serialized output. fmt and JSON both see the
// redacted placeholder; only Unmask returns the raw value.
type SecretString string

// String returns the redacted placeholder. Invoked by fmt and by any logger
// that formats via the Stringer interface.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string so config
// dumps and structured log entries cannot leak the value.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw value. Call sites should be few and deliberate:
// building the pool config is the expected one.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsZero reports whether the secret is unset.
func (s SecretString) IsZero() bool {
	return s == ""
}
