package health

import "context"

// Pinger checks store availability (content store, embedding cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external provider's availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
