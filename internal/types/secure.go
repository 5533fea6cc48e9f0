package types

// SecretString wraps a sensitive configuration value so it cannot leak into
// logs or JSON output by accident. The raw value is only reachable through
// Reveal().
type SecretString struct {
	value string
}

// NewSecretString wraps a raw secret value.
func NewSecretString(v string) SecretString {
	return SecretString{value: v}
}

// Reveal returns the underlying secret value.
func (s SecretString) Reveal() string {
	return s.value
}

// IsZero reports whether the secret is empty.
func (s SecretString) IsZero() bool {
	return s.value == ""
}

// String implements fmt.Stringer, returning a redacted placeholder.
func (s SecretString) String() string {
	if s.value == "" {
		return ""
	}
	return "[REDACTED]"
}

// MarshalJSON redacts the value in any JSON output.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// UnmarshalText allows envconfig to populate the secret from an environment
// variable.
func (s *SecretString) UnmarshalText(text []byte) error {
	s.value = string(text)
	return nil
}
