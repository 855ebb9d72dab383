// Package middleware provides composable wrappers over a SessionStore,
// adding behavior such as encryption at rest and PII scrubbing without the
// store implementations knowing about it.
package middleware

import "github.com/aretw0/charter/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies middlewares right to left, so the first middleware in the
// list is the outermost wrapper.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
