package handlers

import (
	"context"

	"github.com/pkgvault/pkgvault/index/api/errcode"
	"github.com/pkgvault/pkgvault/index/auth"
)

// Context should contain the request specific context for use in across
// handlers. Resources that don't need to be shared across handlers should
// not be on this object.
type Context struct {
	// App points to the application structure that created this context.
	*App
	context.Context

	// Principal is the resolved caller identity, auth.Anonymous when the
	// request carries no session.
	Principal auth.Principal

	// HasSession is true when Principal came from a request session rather
	// than defaulting to anonymous.
	HasSession bool

	// Errors is a collection of errors encountered during the request to be
	// returned to the client API. If errors are added to the collection, the
	// handler *must not* start the response via http.ResponseWriter.
	Errors errcode.Errors
}

// Value overrides context.Context.Value to ensure that calls are routed to
// correct context.
func (ctx *Context) Value(key interface{}) interface{} {
	return ctx.Context.Value(key)
}
