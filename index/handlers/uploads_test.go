package handlers_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/index/datastore/models"
)

type distributionJSON struct {
	Filetype  string    `json:"filetype"`
	PyVersion string    `json:"pyversion"`
	Path      string    `json:"path"`
	MD5Digest string    `json:"md5_digest"`
	Size      int64     `json:"size"`
	Comment   string    `json:"comment"`
	Uploader  string    `json:"uploader"`
	Created   time.Time `json:"created"`
}

type uploadForm struct {
	filename  string
	content   string
	md5Digest string
	filetype  string
	pyversion string
	comment   string
}

func (e *testEnv) upload(t *testing.T, pkg, version string, form uploadForm, opts ...func(*http.Request)) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("content", form.filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(form.content))
	require.NoError(t, err)

	fields := map[string]string{
		"md5-digest": form.md5Digest,
		"filetype":   form.filetype,
		"pyversion":  form.pyversion,
		"comment":    form.comment,
	}
	for name, value := range fields {
		if value != "" {
			require.NoError(t, mw.WriteField(name, value))
		}
	}
	require.NoError(t, mw.Close())

	return e.do(t, "POST", "/v1/packages/"+pkg+"/releases/"+version+"/files",
		&body, mw.FormDataContentType(), opts...)
}

func TestPostDistribution(t *testing.T) {
	e := newTestEnv(t)
	pkg := e.createPackage(t, &models.Package{Name: "open-lib", Owners: []string{"alice"}})

	content := "sdist bytes"
	sum := md5.Sum([]byte(content))

	resp := e.upload(t, "open-lib", "1.0.0", uploadForm{
		filename:  "open-lib-1.0.0.tar.gz",
		content:   content,
		md5Digest: hex.EncodeToString(sum[:]),
		filetype:  "sdist",
		comment:   "first upload",
	}, asSession("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var dist distributionJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dist))
	require.Equal(t, "sdist", dist.Filetype)
	require.Equal(t, hex.EncodeToString(sum[:]), dist.MD5Digest)
	require.Equal(t, int64(len(content)), dist.Size)
	require.Equal(t, "alice", dist.Uploader)
	require.Equal(t, "first upload", dist.Comment)

	// the upload created the release, and the artifact downloads back
	rel, err := e.stores.Releases().FindByVersion(context.Background(), pkg, "1.0.0")
	require.NoError(t, err)
	require.NotNil(t, rel)

	dlResp := e.get(t, "/dists"+dist.Path)
	require.Equal(t, http.StatusOK, dlResp.StatusCode)
	require.Equal(t, content, readBody(t, dlResp))
}

func TestPostDistribution_Denied(t *testing.T) {
	e := newTestEnv(t)
	e.createPackage(t, &models.Package{Name: "open-lib", Owners: []string{"alice"}})

	resp := e.upload(t, "open-lib", "1.0.0", uploadForm{
		filename: "open-lib-1.0.0.tar.gz",
		content:  "sdist bytes",
		filetype: "sdist",
	}, asSession("bob"))
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "DENIED")
}

func TestPostDistribution_PackageUnknown(t *testing.T) {
	e := newTestEnv(t)

	resp := e.upload(t, "ghost", "1.0.0", uploadForm{
		filename: "ghost-1.0.0.tar.gz",
		content:  "bytes",
		filetype: "sdist",
	}, asSession("admin"))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "PACKAGE_UNKNOWN")
}

func TestPostDistribution_DigestMismatch(t *testing.T) {
	e := newTestEnv(t)
	e.createPackage(t, &models.Package{Name: "open-lib", Owners: []string{"alice"}})

	resp := e.upload(t, "open-lib", "1.0.0", uploadForm{
		filename:  "open-lib-1.0.0.tar.gz",
		content:   "actual bytes",
		md5Digest: "00000000000000000000000000000000",
		filetype:  "sdist",
	}, asSession("alice"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "DIGEST_INVALID")
}

func TestPostDistribution_DuplicateArtifact(t *testing.T) {
	e := newTestEnv(t)
	e.createPackage(t, &models.Package{Name: "open-lib", Owners: []string{"alice"}})

	form := uploadForm{
		filename: "open-lib-1.0.0.tar.gz",
		content:  "sdist bytes",
		filetype: "sdist",
	}

	resp := e.upload(t, "open-lib", "1.0.0", form, asSession("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.upload(t, "open-lib", "1.0.0", form, asSession("alice"))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "ARTIFACT_EXISTS")
}

func TestPostDistribution_DistinctPyVersions(t *testing.T) {
	e := newTestEnv(t)
	e.createPackage(t, &models.Package{Name: "open-lib", Owners: []string{"alice"}})

	resp := e.upload(t, "open-lib", "1.0.0", uploadForm{
		filename:  "open_lib-1.0.0-py3-none-any.whl",
		content:   "py3 wheel",
		filetype:  "bdist_wheel",
		pyversion: "py3",
	}, asSession("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.upload(t, "open-lib", "1.0.0", uploadForm{
		filename:  "open_lib-1.0.0-py2-none-any.whl",
		content:   "py2 wheel",
		filetype:  "bdist_wheel",
		pyversion: "py2",
	}, asSession("alice"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}
