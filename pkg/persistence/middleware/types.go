// Package middleware provides composable wrappers around a CheckpointStore:
// at-rest encryption and PII masking.
package middleware

import "github.com/parley-ai/parley/pkg/ports"

// Middleware allows wrapping a CheckpointStore to add behavior.
type Middleware func(ports.CheckpointStore) ports.CheckpointStore

// Chain applies middlewares outermost-first.
func Chain(store ports.CheckpointStore, middlewares ...Middleware) ports.CheckpointStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
