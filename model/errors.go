package model

import "fmt"

// ConfigError reports conflicting or missing user input. It is detected before
// any engine work starts.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// ConfigErrorf formats a ConfigError.
func ConfigErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
