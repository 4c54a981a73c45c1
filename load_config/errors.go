package load_config

import "fmt"

// ConfigurationError reports a malformed load task property.
type ConfigurationError struct {
	Property string
	Value    string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid load property %s=%q: %s", e.Property, e.Value, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
