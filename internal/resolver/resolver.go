// Package resolver matches an image request against a tokenized checksum
// manifest and produces the asset to download. Resolution is a pure
// function of its inputs: no network, no filesystem.
package resolver

import (
	"fmt"
	"strings"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
)

// Request describes the image the caller wants. Fields are normalized here
// (arch aliases, defaulted variant/format) before any comparison; the
// matching itself never guesses.
type Request struct {
	Distro  string
	Release string
	Arch    string
	Variant string // empty selects the source's default variant
	Format  string // empty selects the source's default format
}

// Asset is the resolved download target: one manifest entry joined with the
// release base URL and the source's digest algorithm.
type Asset struct {
	URL       string
	Filename  string
	Digest    string // lowercase hex, as published
	Algorithm verify.Algorithm
}

// NoMatchError reports that no manifest entry satisfies the request. This
// is a legitimate negative result ("that combination does not exist for
// this release"), not a transport failure, and is never retried.
type NoMatchError struct {
	Request     Request
	ManifestURL string
	Entries     int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no entry in %s (%d entries) matches variant=%s arch=%s format=%s",
		e.ManifestURL, e.Entries, e.Request.Variant, e.Request.Arch, e.Request.Format)
}

// Resolve scans the manifest in order and returns the first entry whose
// parsed filename matches the request's variant, arch and format. The
// request arch is mapped to the source's native spelling before comparison.
func Resolve(req Request, src *distro.Source, m *manifest.Manifest) (*Asset, error) {
	norm := normalize(req, src)

	for _, entry := range m.Entries {
		fields, ok := src.ParseFilename(entry.Filename)
		if !ok {
			continue
		}
		if !matches(norm, fields) {
			continue
		}
		return &Asset{
			URL:       src.ReleaseURL(req.Release, req.Arch) + entry.Filename,
			Filename:  entry.Filename,
			Digest:    strings.ToLower(entry.Digest),
			Algorithm: src.Algorithm,
		}, nil
	}

	return nil, &NoMatchError{Request: norm, ManifestURL: m.URL, Entries: len(m.Entries)}
}

// Filter returns every manifest entry satisfying the request, in manifest
// order. Used by listing surfaces; Resolve is Filter's first element.
func Filter(req Request, src *distro.Source, m *manifest.Manifest) []manifest.Entry {
	norm := normalize(req, src)

	var out []manifest.Entry
	for _, entry := range m.Entries {
		fields, ok := src.ParseFilename(entry.Filename)
		if !ok {
			continue
		}
		if matches(norm, fields) {
			out = append(out, entry)
		}
	}
	return out
}

// normalize applies arch alias mapping and variant/format defaults. The
// release field is left alone: it scopes the manifest URL, not the
// filename predicate.
func normalize(req Request, src *distro.Source) Request {
	req.Arch = src.NativeArch(req.Arch)
	if req.Variant == "" {
		req.Variant = src.DefaultVariant
	}
	if req.Format == "" {
		req.Format = src.DefaultFormat
	}
	return req
}

// matches compares request fields against parsed filename fields. Each
// check is an independent field equality, case-insensitive for variant and
// format where upstream naming is inconsistent.
func matches(req Request, f distro.Fields) bool {
	if f.Arch != req.Arch {
		return false
	}
	if !strings.EqualFold(f.Variant, req.Variant) {
		return false
	}
	if !strings.EqualFold(f.Format, req.Format) {
		return false
	}
	return true
}
