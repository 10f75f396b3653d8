package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	dcontext "github.com/pkgvault/pkgvault/context"
	"github.com/pkgvault/pkgvault/index/access"
	"github.com/pkgvault/pkgvault/index/api/errcode"
	v1 "github.com/pkgvault/pkgvault/index/api/v1"
	"github.com/pkgvault/pkgvault/index/auth"
	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// downloadDispatcher uses the request context to build a downloadHandler.
func downloadDispatcher(ctx *Context, r *http.Request) http.Handler {
	dh := &downloadHandler{
		Context: ctx,
		path:    "/" + mux.Vars(r)["path"],
	}

	return handlers.MethodHandler{
		"GET":  http.HandlerFunc(dh.GetDistribution),
		"HEAD": http.HandlerFunc(dh.GetDistribution),
	}
}

// downloadHandler serves distribution artifact downloads, enforcing the
// package's download permissions.
type downloadHandler struct {
	*Context

	path string
}

// GetDistribution resolves the request path to a distribution, decides
// whether the caller may read it and either streams the artifact as an
// attachment or denies with the appropriate status. Every serve and deny on
// a restricted package emits an audit log line.
func (dh *downloadHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := dh.stores.Distributions().FindByPath(dh, dh.path)
	if err != nil {
		dh.Errors = append(dh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}
	if dist == nil {
		dh.Errors = append(dh.Errors, v1.ErrorCodeDistributionUnknown)
		return
	}

	rel, err := dh.stores.Distributions().Release(dh, dist)
	if err != nil || rel == nil {
		dh.Errors = append(dh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}
	pkg, err := dh.stores.Releases().Package(dh, rel)
	if err != nil || pkg == nil {
		dh.Errors = append(dh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}

	// Packages with no download restriction are served without attempting
	// authentication: the caller stays anonymous even if it could have
	// authenticated.
	if access.Unrestricted(pkg) {
		dh.serve(w, r, auth.Anonymous, pkg, dist)
		return
	}

	principal := dh.Principal
	if !dh.HasSession {
		ok := false
		if dh.credentials != nil {
			principal, ok = dh.credentials.AuthenticateCredentials(r)
		}
		if !ok {
			// Ask for credentials on the next attempt. No detail beyond the
			// challenge is disclosed.
			challenge := auth.NewBasicChallenge(dh.realm)
			challenge.SetHeaders(w)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	if !access.CanRead(principal, pkg) {
		dh.audit(principal, pkg, "denied")
		msg := fmt.Sprintf("user: %s package: %s download permission denied", principal.Name, pkg.Name)
		http.Error(w, msg, http.StatusForbidden)
		return
	}

	dh.serve(w, r, principal, pkg, dist)
}

func (dh *downloadHandler) serve(w http.ResponseWriter, r *http.Request, principal auth.Principal, pkg *models.Package, dist *models.Distribution) {
	reader, err := dh.artifacts.Reader(dh, dist.Path)
	if err != nil {
		dh.Errors = append(dh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}
	defer reader.Close()

	dh.audit(principal, pkg, "downloaded")

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(dist.Path)))
	if dist.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dist.Size, 10))
	}

	if r.Method == "HEAD" {
		return
	}

	if _, err := io.Copy(w, reader); err != nil {
		// Streaming already started, nothing to do for the client beyond
		// logging. Store state is unaffected.
		dcontext.GetLogger(dh).WithError(err).Warn("error streaming distribution")
	}
}

func (dh *downloadHandler) audit(principal auth.Principal, pkg *models.Package, outcome string) {
	dcontext.GetLoggerWithFields(dh, map[interface{}]interface{}{
		"user":    principal.Name,
		"package": pkg.Name,
		"outcome": outcome,
	}).Info(fmt.Sprintf("user: %s package: %s %s", principal.Name, pkg.Name, outcome))
}
