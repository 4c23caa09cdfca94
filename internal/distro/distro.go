// Package distro describes the upstream cloud-image repositories this tool
// knows how to resolve against. Each distribution contributes a Descriptor
// (filename grammar, architecture naming convention); URL templates, digest
// algorithm and manifest convention come from the source index.
package distro

import (
	"fmt"
	"sort"
	"strings"

	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
)

// Fields holds the structured parts extracted from one manifest filename.
// Resolution compares these field-by-field against the request instead of
// matching a composed pattern over the raw line.
type Fields struct {
	Release string // version token embedded in the filename, "" when absent
	Variant string // build flavor, e.g. genericcloud, nocloud, server
	Arch    string // architecture token as the manifest spells it
	Format  string // file extension, e.g. qcow2, raw, img
}

// Descriptor is the per-distribution knowledge registered in code.
type Descriptor struct {
	// Name is the unique distro identifier, e.g. "debian".
	Name string

	// ParseFilename extracts Fields from a manifest filename. ok is false
	// when the filename is not a disk-image artifact of this distribution.
	ParseFilename func(filename string) (Fields, bool)

	// NativeArch maps equivalent architecture tokens onto the convention
	// this distribution's manifests use (e.g. x86_64 -> amd64 for Debian).
	// Applied to the request before any field comparison.
	NativeArch func(arch string) string

	// DefaultVariant is used when the request leaves the variant empty.
	DefaultVariant string

	// DefaultFormat is used when the request leaves the format empty.
	DefaultFormat string
}

// Source is a Descriptor bound to the repository settings from the index.
type Source struct {
	Descriptor

	BaseURL      string // template with {release} and {arch} placeholders
	ManifestName string // well-known checksum listing filename
	Algorithm    verify.Algorithm
	Grammar      manifest.Grammar
	Releases     []string // known releases, newest first (picker hints)
}

// ReleaseURL expands the base-URL template for one release. arch is
// substituted in its native spelling because some repositories key their
// directory layout on it.
func (s *Source) ReleaseURL(release, arch string) string {
	url := strings.ReplaceAll(s.BaseURL, "{release}", release)
	url = strings.ReplaceAll(url, "{arch}", s.NativeArch(arch))
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url
}

// ManifestURL is the full location of the checksum listing for one release.
func (s *Source) ManifestURL(release, arch string) string {
	return s.ReleaseURL(release, arch) + s.ManifestName
}

var descriptors = make(map[string]Descriptor)

// Register makes a Descriptor available under its Name. Called by each
// distribution package at registration time.
func Register(d Descriptor) {
	if d.Name == "" || d.ParseFilename == nil || d.NativeArch == nil {
		panic(fmt.Sprintf("distro: incomplete descriptor %+v", d))
	}
	descriptors[d.Name] = d
}

// descriptor returns the registered Descriptor by name.
func descriptor(name string) (Descriptor, bool) {
	d, ok := descriptors[strings.ToLower(name)]
	return d, ok
}

// RegisteredNames lists all registered distributions, sorted.
func RegisteredNames() []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// aliasArch resolves arch through the given alias table, leaving unknown
// tokens untouched so new architectures pass through unmangled.
func aliasArch(arch string, aliases map[string]string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	if native, ok := aliases[arch]; ok {
		return native
	}
	return arch
}

// DebianArch maps generic architecture tokens to the Debian naming
// convention (x86_64 -> amd64, aarch64 -> arm64).
func DebianArch(arch string) string {
	return aliasArch(arch, map[string]string{
		"x86_64":  "amd64",
		"aarch64": "arm64",
	})
}

// EnterpriseArch maps generic architecture tokens to the RHEL-family naming
// convention (amd64 -> x86_64, arm64 -> aarch64).
func EnterpriseArch(arch string) string {
	return aliasArch(arch, map[string]string{
		"amd64": "x86_64",
		"arm64": "aarch64",
	})
}
