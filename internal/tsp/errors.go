package tsp

import "fmt"

// InputError is returned when there are too few valid points to build a route.
type InputError struct {
	Count int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("at least 2 valid points are required to solve a route, got %d", e.Count)
}

// ConfigError is returned for a solve configuration that cannot be repaired.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid tsp config %s: %s", e.Field, e.Reason)
}
