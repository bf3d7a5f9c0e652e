package ceb

import "fmt"

// ConfigurationError reports an invalid or duplicate registration, or a
// registration attempted outside of the window in which it is accepted.
// Hook registries, element composers and message buses all return it.
type ConfigurationError struct {
	Component string // "hooks", "element", "messaging", ...
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("%s: configuration error: %s", e.Component, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Configurationf builds a ConfigurationError for the named component.
func Configurationf(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Component: component, Reason: fmt.Sprintf(format, args...)}
}
