package ceb

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigurationErrorString(t *testing.T) {
	tests := []struct {
		err  *ConfigurationError
		want string
	}{
		{&ConfigurationError{Reason: "boom"}, "configuration error: boom"},
		{&ConfigurationError{Component: "hooks", Reason: "unknown phase \"x\""}, "hooks: configuration error: unknown phase \"x\""},
		{Configurationf("messaging", "duplicate handler for %q", "CommandA"), "messaging: configuration error: duplicate handler for \"CommandA\""},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfigurationErrorAs(t *testing.T) {
	wrapped := fmt.Errorf("compose: %w", Configurationf("element", "nil builder"))

	var cfgErr *ConfigurationError
	if !errors.As(wrapped, &cfgErr) {
		t.Fatal("expected errors.As to find *ConfigurationError")
	}
	if cfgErr.Component != "element" {
		t.Errorf("Component = %q, want %q", cfgErr.Component, "element")
	}
}
