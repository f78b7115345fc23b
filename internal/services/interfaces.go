// Package services runs the long-lived background services of the language
// server, such as the workspace watcher and the metrics endpoint, in
// dependency order.
package services

import "context"

// ManagedService defines the interface for services managed by the orchestrator.
type ManagedService interface {
	// Name returns the service name for logging and identification.
	Name() string

	// Start initializes and starts the service. The context bounds start-up
	// only; services must not tie their lifetime to it.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the service.
	Stop(ctx context.Context) error

	// Dependencies returns the names of services this service depends on.
	Dependencies() []string
}
