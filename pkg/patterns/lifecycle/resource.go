package lifecycle

import (
	"context"
	"errors"
)

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// ManagedResource is a component with a managed lifecycle.
type ManagedResource interface {
	// Start begins serving in the background. Calling it on a running resource is an error.
	Start(ctx context.Context) error

	// Stop shuts the component down, waiting at most until ctx is done. It is idempotent.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) HealthStatus
}

// StopAll stops resources in reverse order and joins their errors.
func StopAll(ctx context.Context, resources ...ManagedResource) error {
	var errs []error
	for i := len(resources) - 1; i >= 0; i-- {
		if err := resources[i].Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
