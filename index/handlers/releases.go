package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pkgvault/pkgvault/index/access"
	"github.com/pkgvault/pkgvault/index/api/errcode"
	v1 "github.com/pkgvault/pkgvault/index/api/v1"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/datastore/models"
	"github.com/pkgvault/pkgvault/index/metadata"
	"github.com/pkgvault/pkgvault/index/releases"
)

// releaseEnvelope is the wire form of a release.
type releaseEnvelope struct {
	Package         string              `json:"package"`
	Version         string              `json:"version"`
	MetadataVersion string              `json:"metadata_version"`
	Hidden          bool                `json:"hidden"`
	Created         time.Time           `json:"created"`
	Info            map[string][]string `json:"info"`
}

func newReleaseEnvelope(packageName string, rel *models.Release) releaseEnvelope {
	return releaseEnvelope{
		Package:         packageName,
		Version:         rel.Version,
		MetadataVersion: rel.MetadataVersion,
		Hidden:          rel.Hidden,
		Created:         rel.Created,
		Info:            rel.Info,
	}
}

// releaseListDispatcher builds the handler for the release listing route.
func releaseListDispatcher(ctx *Context, r *http.Request) http.Handler {
	rlh := &releaseListHandler{Context: ctx}

	return handlers.MethodHandler{
		"GET": http.HandlerFunc(rlh.GetReleases),
	}
}

type releaseListHandler struct {
	*Context
}

// GetReleases lists the releases visible to the caller, hidden releases
// excluded, ordered by package name and then version.
func (rlh *releaseListHandler) GetReleases(w http.ResponseWriter, r *http.Request) {
	visible, err := releases.ListVisible(rlh, rlh.stores, rlh.Principal, false)
	if err != nil {
		rlh.Errors = append(rlh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}

	envelopes := make([]releaseEnvelope, 0, len(visible))
	for _, rel := range visible {
		envelopes = append(envelopes, newReleaseEnvelope(rel.Package.Name, rel))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	if err := enc.Encode(struct {
		Releases []releaseEnvelope `json:"releases"`
	}{Releases: envelopes}); err != nil {
		rlh.Errors = append(rlh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
	}
}

// releaseDispatcher builds the handler for the release detail route.
func releaseDispatcher(ctx *Context, r *http.Request) http.Handler {
	rh := &releaseHandler{
		Context:     ctx,
		packageName: mux.Vars(r)["package"],
		version:     mux.Vars(r)["version"],
	}

	return handlers.MethodHandler{
		"GET": http.HandlerFunc(rh.GetRelease),
		"PUT": http.HandlerFunc(rh.PutReleaseMetadata),
	}
}

type releaseHandler struct {
	*Context

	packageName string
	version     string
}

// GetRelease returns the metadata of a single release. Hidden releases are
// individually addressable, read permission is still required.
func (rh *releaseHandler) GetRelease(w http.ResponseWriter, r *http.Request) {
	pkg, err := rh.stores.Packages().FindByName(rh, rh.packageName)
	if err != nil {
		rh.Errors = append(rh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}
	if pkg == nil {
		rh.Errors = append(rh.Errors, v1.ErrorCodePackageUnknown)
		return
	}

	if !access.CanRead(rh.Principal, pkg) {
		if !rh.Principal.Authenticated {
			rh.Errors = append(rh.Errors, errcode.ErrorCodeUnauthorized)
			return
		}
		rh.Errors = append(rh.Errors, errcode.ErrorCodeDenied)
		return
	}

	rel, err := rh.stores.Releases().FindByVersion(rh, pkg, rh.version)
	if err != nil {
		rh.Errors = append(rh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}
	if rel == nil {
		rh.Errors = append(rh.Errors, v1.ErrorCodeReleaseUnknown)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(newReleaseEnvelope(pkg.Name, rel)); err != nil {
		rh.Errors = append(rh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
	}
}

// PutReleaseMetadata replaces the recognized metadata of a release from the
// submitted form fields, creating the release when absent. Recognized keys
// absent from the submission are cleared.
func (rh *releaseHandler) PutReleaseMetadata(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		rh.Errors = append(rh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}

	metadataVersion := r.PostForm.Get("metadata-version")
	if metadataVersion == "" {
		metadataVersion = metadata.DefaultVersion
	}

	rel, err := rh.manager.UpsertReleaseMetadata(rh, rh.Principal, rh.packageName, rh.version, metadataVersion, r.PostForm)
	if err != nil {
		rh.Errors = append(rh.Errors, metadataUpdateError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(newReleaseEnvelope(rh.packageName, rel)); err != nil {
		rh.Errors = append(rh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
	}
}

func metadataUpdateError(err error) error {
	switch {
	case errors.Is(err, datastore.ErrPackageNotFound):
		return v1.ErrorCodePackageUnknown
	case errors.Is(err, releases.ErrForbidden):
		return errcode.ErrorCodeDenied
	case errors.Is(err, metadata.ErrUnsupportedVersion):
		return v1.ErrorCodeMetadataVersionUnsupported
	default:
		return errcode.ErrorCodeUnknown.WithDetail(err)
	}
}
