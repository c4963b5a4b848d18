package backend

import "context"

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the composed collaborator and its cleanup.
type BackendResult struct {
	Collaborator *Collaborator
	// Ping checks the underlying storage; nil for the memory backend.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
	// Remote is true when changes travel through a message broker.
	Remote bool
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
