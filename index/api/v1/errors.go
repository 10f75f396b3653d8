package v1

import (
	"net/http"

	"github.com/pkgvault/pkgvault/index/api/errcode"
)

const errGroup = "index.api.v1"

var (
	// ErrorCodePackageUnknown is returned when the package referenced in a
	// request is not known to the index.
	ErrorCodePackageUnknown = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "PACKAGE_UNKNOWN",
		Message:        "package not known to index",
		HTTPStatusCode: http.StatusNotFound,
	})

	// ErrorCodeReleaseUnknown is returned when the (package, version) pair
	// referenced in a request does not exist.
	ErrorCodeReleaseUnknown = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "RELEASE_UNKNOWN",
		Message:        "release not known to index",
		HTTPStatusCode: http.StatusNotFound,
	})

	// ErrorCodeDistributionUnknown is returned when a download path does not
	// resolve to a stored distribution.
	ErrorCodeDistributionUnknown = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "DISTRIBUTION_UNKNOWN",
		Message:        "distribution not known to index",
		HTTPStatusCode: http.StatusNotFound,
	})

	// ErrorCodeVersionExists is returned when creating a release whose
	// version already exists for the package.
	ErrorCodeVersionExists = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "VERSION_EXISTS",
		Message:        "release version already exists",
		HTTPStatusCode: http.StatusConflict,
	})

	// ErrorCodeArtifactExists is returned when uploading a distribution
	// whose (filetype, pyversion) pair already exists for the release.
	ErrorCodeArtifactExists = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "ARTIFACT_EXISTS",
		Message:        "distribution artifact already exists for release",
		HTTPStatusCode: http.StatusConflict,
	})

	// ErrorCodeDigestInvalid is returned when the declared upload digest
	// does not match the received content.
	ErrorCodeDigestInvalid = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "DIGEST_INVALID",
		Message:        "provided digest did not match uploaded content",
		HTTPStatusCode: http.StatusBadRequest,
	})

	// ErrorCodeMetadataVersionUnsupported is returned when a release's
	// metadata version has no registered schema handler.
	ErrorCodeMetadataVersionUnsupported = errcode.Register(errGroup, errcode.ErrorDescriptor{
		Value:          "METADATA_VERSION_UNSUPPORTED",
		Message:        "metadata version is not supported",
		HTTPStatusCode: http.StatusNotFound,
	})
)
