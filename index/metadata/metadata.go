// Package metadata defines the release metadata schemas recognized by the
// index. Each metadata_version maps to a handler that knows which keys the
// schema carries and whether a key holds one value or an ordered list.
// The mapping is built once at startup and never mutated.
package metadata

import (
	"fmt"
	"strings"

	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// ErrUnsupportedVersion is returned when a metadata_version has no
// registered schema handler.
var ErrUnsupportedVersion = fmt.Errorf("unsupported metadata version")

// DefaultVersion is the metadata_version assigned to releases created
// without an explicit version.
const DefaultVersion = "1.0"

// Handler describes one metadata schema version.
type Handler struct {
	// Version is the metadata_version string this handler serves.
	Version string

	// Keys lists the recognized keys, in canonical order.
	Keys []string

	// MultiValued marks the keys that hold an ordered list of values. All
	// other keys are single-valued and round-trip through a newline-joined
	// string form.
	MultiValued map[string]bool
}

// Recognizes reports whether key is part of the schema.
func (h *Handler) Recognizes(key string) bool {
	for _, k := range h.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// metadata 1.0 (PEP 241) keys, extended by 1.1 (PEP 314) and 1.2 (PEP 345).
var (
	keys1_0 = []string{
		"metadata-version", "name", "version", "platform", "summary",
		"description", "keywords", "home-page", "author", "author-email",
		"license",
	}
	keys1_1 = append(append([]string{}, keys1_0...),
		"supported-platform", "classifier", "download-url", "requires",
		"provides", "obsoletes",
	)
	keys1_2 = append(append([]string{}, keys1_1...),
		"maintainer", "maintainer-email", "requires-python",
		"requires-external", "requires-dist", "provides-dist",
		"obsoletes-dist", "project-url",
	)

	multi1_0 = map[string]bool{"platform": true}
	multi1_1 = map[string]bool{
		"platform": true, "supported-platform": true, "classifier": true,
		"requires": true, "provides": true, "obsoletes": true,
	}
	multi1_2 = map[string]bool{
		"platform": true, "supported-platform": true, "classifier": true,
		"requires-external": true, "requires-dist": true,
		"provides-dist": true, "obsoletes-dist": true, "project-url": true,
	}
)

// Registry resolves metadata versions to schema handlers.
type Registry struct {
	handlers map[string]*Handler
}

// NewRegistry builds a registry restricted to the given versions. An empty
// versions list enables every built-in schema. Unknown versions are a
// configuration error.
func NewRegistry(versions []string) (*Registry, error) {
	builtin := map[string]*Handler{
		"1.0": {Version: "1.0", Keys: keys1_0, MultiValued: multi1_0},
		"1.1": {Version: "1.1", Keys: keys1_1, MultiValued: multi1_1},
		"1.2": {Version: "1.2", Keys: keys1_2, MultiValued: multi1_2},
	}

	if len(versions) == 0 {
		return &Registry{handlers: builtin}, nil
	}

	handlers := make(map[string]*Handler, len(versions))
	for _, v := range versions {
		h, ok := builtin[v]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
		}
		handlers[v] = h
	}
	return &Registry{handlers: handlers}, nil
}

// Handler returns the handler for a metadata version, or
// ErrUnsupportedVersion.
func (r *Registry) Handler(version string) (*Handler, error) {
	h, ok := r.handlers[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	return h, nil
}

// Versions returns the recognized metadata versions.
func (r *Registry) Versions() []string {
	vv := make([]string, 0, len(r.handlers))
	for v := range r.handlers {
		vv = append(vv, v)
	}
	return vv
}

// FormValues flattens release metadata to its single-value presentation:
// multi-valued keys keep their value lists, single-valued keys are joined on
// line boundaries.
func (h *Handler) FormValues(info models.PackageInfo) map[string][]string {
	out := make(map[string][]string, len(info))
	for key, values := range info {
		if h.MultiValued[key] {
			out[key] = append([]string(nil), values...)
		} else {
			out[key] = []string{strings.Join(values, "\n")}
		}
	}
	return out
}

// Apply rebuilds release metadata from submitted form values. Only
// recognized keys are kept; a recognized key absent from the submission is
// cleared. Single-valued submissions are split on line boundaries so that
// the joined form round-trips.
func (h *Handler) Apply(fields map[string][]string) models.PackageInfo {
	info := models.PackageInfo{}
	for _, key := range h.Keys {
		values, ok := fields[key]
		if !ok {
			continue
		}
		if h.MultiValued[key] {
			info.SetList(key, values)
			continue
		}
		if len(values) == 0 {
			continue
		}
		value := values[0]
		if value == "" {
			continue
		}
		info.SetList(key, strings.Split(value, "\n"))
	}
	return info
}
