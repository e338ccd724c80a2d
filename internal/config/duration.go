package config

import "time"

// Duration wraps time.Duration so TOML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// String returns the string representation of Duration
func (d Duration) String() string {
	return time.Duration(d).String()
}

// AsDuration converts a config.Duration to a time.Duration
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// FromDuration creates a config.Duration from a time.Duration
func FromDuration(d time.Duration) Duration {
	return Duration(d)
}
