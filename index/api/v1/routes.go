package v1

import "github.com/gorilla/mux"

// The following are definitions of the name under which all V1 routes are
// registered. These symbols can be used to look up a route based on the name.
const (
	RouteNameBase     = "base"
	RouteNameReleases = "releases"
	RouteNameRelease  = "release"
	RouteNameUpload   = "upload"
	RouteNameDownload = "download"

	RoutePathBase     = "/v1/"
	RoutePathReleases = "/v1/releases"
	RoutePathRelease  = "/v1/packages/{package}/releases/{version}"
	RoutePathUpload   = "/v1/packages/{package}/releases/{version}/files"
	RoutePathDownload = "/dists/{path:.*}"
)

var routePaths = map[string]string{
	RouteNameBase:     RoutePathBase,
	RouteNameReleases: RoutePathReleases,
	RouteNameRelease:  RoutePathRelease,
	RouteNameUpload:   RoutePathUpload,
	RouteNameDownload: RoutePathDownload,
}

// RoutePath returns the path pattern registered under routeName.
func RoutePath(routeName string) string {
	return routePaths[routeName]
}

// Router builds a gorilla router with named routes for the various API
// methods. This can be used directly by both server implementations and
// clients.
func Router() *mux.Router {
	return RouterWithPrefix("")
}

// RouterWithPrefix builds a gorilla router with a configured prefix
// on all routes.
func RouterWithPrefix(prefix string) *mux.Router {
	rootRouter := mux.NewRouter()
	router := rootRouter
	if prefix != "" {
		router = router.PathPrefix(prefix).Subrouter()
	}

	router.StrictSlash(true)

	for _, name := range []string{
		RouteNameBase,
		RouteNameReleases,
		RouteNameRelease,
		RouteNameUpload,
		RouteNameDownload,
	} {
		router.Path(routePaths[name]).Name(name)
	}

	return rootRouter
}
