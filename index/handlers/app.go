package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pkgvault/pkgvault/configuration"
	dcontext "github.com/pkgvault/pkgvault/context"
	"github.com/pkgvault/pkgvault/index/api/errcode"
	v1 "github.com/pkgvault/pkgvault/index/api/v1"
	"github.com/pkgvault/pkgvault/index/auth"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/metadata"
	"github.com/pkgvault/pkgvault/index/releases"
	"github.com/pkgvault/pkgvault/index/storage"
)

const defaultAuthRealm = "pkgvault"

// App is a global index application object. Shared resources can be placed
// on this object that will be accessible from all requests.
type App struct {
	context.Context

	// Config is the configuration used to build the application.
	Config *configuration.Configuration

	router    *mux.Router
	stores    datastore.RegistryStore
	artifacts *storage.ArtifactStore
	schemas   *metadata.Registry
	manager   *releases.Manager

	sessions    auth.SessionAuthenticator
	credentials auth.CredentialAuthenticator
	realm       string
}

// AppOption provides optional collaborators to NewApp.
type AppOption func(*App)

// WithSessionAuthenticator supplies the session principal resolver.
func WithSessionAuthenticator(s auth.SessionAuthenticator) AppOption {
	return func(app *App) {
		app.sessions = s
	}
}

// WithCredentialAuthenticator supplies the fallback credential handshake
// used on restricted downloads.
func WithCredentialAuthenticator(c auth.CredentialAuthenticator) AppOption {
	return func(app *App) {
		app.credentials = c
	}
}

// NewApp builds the index application from its parts. The storage driver and
// registry stores are constructed by the caller, everything request-scoped
// is assembled here.
func NewApp(ctx context.Context, config *configuration.Configuration, stores datastore.RegistryStore,
	artifacts *storage.ArtifactStore, opts ...AppOption) (*App, error) {

	schemas, err := metadata.NewRegistry(config.Metadata.Versions)
	if err != nil {
		return nil, err
	}

	app := &App{
		Context:   ctx,
		Config:    config,
		router:    v1.RouterWithPrefix(config.HTTP.Prefix),
		stores:    stores,
		artifacts: artifacts,
		schemas:   schemas,
		manager:   releases.NewManager(stores, artifacts, schemas),
		realm:     config.Auth.Realm,
	}
	if app.realm == "" {
		app.realm = defaultAuthRealm
	}

	for _, opt := range opts {
		opt(app)
	}

	// Register the handler dispatchers.
	app.register(v1.RouteNameBase, func(ctx *Context, r *http.Request) http.Handler {
		return http.HandlerFunc(apiBase)
	})
	app.register(v1.RouteNameReleases, releaseListDispatcher)
	app.register(v1.RouteNameRelease, releaseDispatcher)
	app.register(v1.RouteNameUpload, uploadDispatcher)
	app.register(v1.RouteNameDownload, downloadDispatcher)

	return app, nil
}

// register a handler with the application, by route name. The handler will
// be passed through the application filters and context will be constructed
// at request time.
func (app *App) register(routeName string, dispatch dispatchFunc) {
	app.router.GetRoute(routeName).Handler(app.dispatcher(dispatch))
}

// dispatchFunc takes a context and request and returns a constructed handler
// for the route. The dispatcher will use this to dynamically create request
// specific handlers for each endpoint without creating a new router for each
// request.
type dispatchFunc func(ctx *Context, r *http.Request) http.Handler

// dispatcher returns a handler that constructs a request specific context
// and handler, using the dispatch factory function.
func (app *App) dispatcher(dispatch dispatchFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := app.context(w, r)

		dispatch(ctx, r).ServeHTTP(w, r)

		// Automated error response handling here. Handlers may return their
		// own errors if they need different behavior (such as the download
		// gateway's authentication challenge).
		if ctx.Errors.Len() > 0 {
			_ = errcode.ServeJSON(w, ctx.Errors)
			for _, e := range ctx.Errors {
				dcontext.GetLogger(ctx).WithError(e).Warn("error serving request")
			}
		}
	})
}

// context constructs the request-scoped context for a request.
func (app *App) context(w http.ResponseWriter, r *http.Request) *Context {
	ctx := r.Context()
	ctx = dcontext.WithValues(ctx, map[string]interface{}{
		"http.request.method": r.Method,
		"http.request.uri":    r.RequestURI,
		"vars.package":        mux.Vars(r)["package"],
		"vars.version":        mux.Vars(r)["version"],
	})
	ctx = dcontext.WithLogger(ctx, dcontext.GetLogger(app.Context))

	reqCtx := &Context{
		App:       app,
		Context:   ctx,
		Principal: auth.Anonymous,
	}

	if app.sessions != nil {
		if p, ok := app.sessions.CurrentPrincipal(r); ok {
			reqCtx.Principal = p
			reqCtx.HasSession = true
		}
	}

	return reqCtx
}

// ServeHTTP implements http.Handler.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	app.router.ServeHTTP(w, r)
}

// apiBase implements a simple yes-man for confirming the API is live.
func apiBase(w http.ResponseWriter, r *http.Request) {
	const emptyJSON = "{}"

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", "2")

	w.Write([]byte(emptyJSON))
}
