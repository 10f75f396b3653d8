package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pkgvault/pkgvault/index/api/errcode"
	v1 "github.com/pkgvault/pkgvault/index/api/v1"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/datastore/models"
	"github.com/pkgvault/pkgvault/index/releases"
	"github.com/pkgvault/pkgvault/index/storage"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing, the
// remainder spills to temporary files.
const maxUploadMemory = 32 << 20

// uploadDispatcher builds the handler for the distribution upload route.
func uploadDispatcher(ctx *Context, r *http.Request) http.Handler {
	uh := &uploadHandler{
		Context:     ctx,
		packageName: mux.Vars(r)["package"],
		version:     mux.Vars(r)["version"],
	}

	return handlers.MethodHandler{
		"POST": http.HandlerFunc(uh.PostDistribution),
	}
}

type uploadHandler struct {
	*Context

	packageName string
	version     string
}

// distributionEnvelope is the wire form of a distribution.
type distributionEnvelope struct {
	Filetype  string    `json:"filetype"`
	PyVersion string    `json:"pyversion"`
	Path      string    `json:"path"`
	MD5Digest string    `json:"md5_digest"`
	Size      int64     `json:"size"`
	Comment   string    `json:"comment,omitempty"`
	Uploader  string    `json:"uploader"`
	Created   time.Time `json:"created"`
}

func newDistributionEnvelope(d *models.Distribution) distributionEnvelope {
	return distributionEnvelope{
		Filetype:  d.Filetype,
		PyVersion: d.PyVersion,
		Path:      d.Path,
		MD5Digest: d.MD5Digest,
		Size:      d.Size,
		Comment:   d.Comment,
		Uploader:  d.Uploader,
		Created:   d.Created,
	}
}

// PostDistribution accepts a multipart upload of one distribution file and
// attaches it to the release, creating the release on first upload.
func (uh *uploadHandler) PostDistribution(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		uh.Errors = append(uh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}

	file, header, err := r.FormFile("content")
	if err != nil {
		uh.Errors = append(uh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
		return
	}
	defer file.Close()

	payload := releases.UploadPayload{
		Filename:  header.Filename,
		Content:   file,
		MD5Digest: r.FormValue("md5-digest"),
		Filetype:  r.FormValue("filetype"),
		PyVersion: r.FormValue("pyversion"),
		Comment:   r.FormValue("comment"),
	}

	dist, err := uh.manager.UploadDistribution(uh, uh.Principal, uh.packageName, uh.version, payload)
	if err != nil {
		uh.Errors = append(uh.Errors, uploadError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(newDistributionEnvelope(dist)); err != nil {
		uh.Errors = append(uh.Errors, errcode.ErrorCodeUnknown.WithDetail(err))
	}
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, datastore.ErrPackageNotFound):
		return v1.ErrorCodePackageUnknown
	case errors.Is(err, releases.ErrForbidden):
		return errcode.ErrorCodeDenied
	case errors.Is(err, datastore.ErrDuplicateVersion):
		return v1.ErrorCodeVersionExists
	case errors.Is(err, datastore.ErrDuplicateArtifact):
		return v1.ErrorCodeArtifactExists
	case errors.Is(err, storage.ErrDigestMismatch):
		return v1.ErrorCodeDigestInvalid
	default:
		return errcode.ErrorCodeUnknown.WithDetail(err)
	}
}
