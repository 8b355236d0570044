package domain

import "fmt"

// ConfigError marks malformed solve input: absent or inverted depot windows,
// invalid node windows, mismatched matrix dimensions. It is fatal and raised
// before any search begins; Field and Detail carry enough context for an
// operator to correct the input.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Detail)
}
