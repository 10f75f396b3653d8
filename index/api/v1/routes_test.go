package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type routeTestCase struct {
	RouteName  string
	RequestURI string
	Vars       map[string]string
}

func TestRouter(t *testing.T) {
	baseTestRouter(t, Router(), "")
}

func TestRouterWithPrefix(t *testing.T) {
	baseTestRouter(t, RouterWithPrefix("/prefix/"), "/prefix")
}

func baseTestRouter(t *testing.T, router *mux.Router, prefix string) {
	testCases := []routeTestCase{
		{
			RouteName:  RouteNameBase,
			RequestURI: "/v1/",
			Vars:       map[string]string{},
		},
		{
			RouteName:  RouteNameReleases,
			RequestURI: "/v1/releases",
			Vars:       map[string]string{},
		},
		{
			RouteName:  RouteNameRelease,
			RequestURI: "/v1/packages/lib-a/releases/1.0.0",
			Vars: map[string]string{
				"package": "lib-a",
				"version": "1.0.0",
			},
		},
		{
			RouteName:  RouteNameUpload,
			RequestURI: "/v1/packages/lib-a/releases/1.0.0/files",
			Vars: map[string]string{
				"package": "lib-a",
				"version": "1.0.0",
			},
		},
		{
			RouteName:  RouteNameDownload,
			RequestURI: "/dists/artifacts/sha256/ab/abcd/lib-a-1.0.0.tar.gz",
			Vars: map[string]string{
				"path": "artifacts/sha256/ab/abcd/lib-a-1.0.0.tar.gz",
			},
		},
	}

	for _, testcase := range testCases {
		t.Run(testcase.RouteName+testcase.RequestURI, func(t *testing.T) {
			var matchedName string
			var matchedVars map[string]string

			router.GetRoute(testcase.RouteName).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				matchedName = mux.CurrentRoute(r).GetName()
				matchedVars = mux.Vars(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", prefix+testcase.RequestURI, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, testcase.RouteName, matchedName)
			if len(testcase.Vars) == 0 {
				require.Empty(t, matchedVars)
			} else {
				require.Equal(t, testcase.Vars, matchedVars)
			}
		})
	}
}

func TestRoutePath(t *testing.T) {
	require.Equal(t, "/v1/releases", RoutePath(RouteNameReleases))
	require.Empty(t, RoutePath("bogus"))
}
