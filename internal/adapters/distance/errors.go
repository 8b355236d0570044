package distance

import "fmt"

// ProviderError marks a matrix backend transport or protocol failure. It is
// fatal for the request; retry policy belongs to the caller, never to the
// adapter.
type ProviderError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("matrix provider %s: status %d: %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("matrix provider %s: %s", e.Provider, e.Detail)
}
