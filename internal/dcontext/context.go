// Package dcontext carries request-scoped values — chiefly the logger —
// through engine operations, the way the teacher's own context package
// threads a logger through registry requests.
package dcontext

import "context"

// Context is an alias for the standard context.Context. Kept as a
// package-level name so call sites read "dcontext.Context" the way the teacher's code
// reads "context.Context" from its own package, without tying callers to
// golang.org/x/net/context the way the teacher's original did.
type Context = context.Context

// Background returns a non-nil, empty Context.
func Background() Context {
	return context.Background()
}

type valueKey string

const loggerKey valueKey = "logger"

// WithValue returns a copy of parent in which key is associated with val.
func WithValue(parent Context, key, val interface{}) Context {
	return context.WithValue(parent, key, val)
}
