// Package debian teaches the resolver the Debian cloud-image naming scheme.
// Artifacts look like debian-12-genericcloud-amd64.qcow2, optionally with a
// trailing build stamp (debian-12-genericcloud-amd64-20240717-1811.qcow2).
package debian

import (
	"strings"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
)

const Name = "debian"

// Register adds the Debian descriptor to the distro registry.
func Register() {
	distro.Register(distro.Descriptor{
		Name:           Name,
		ParseFilename:  parseFilename,
		NativeArch:     distro.DebianArch,
		DefaultVariant: "genericcloud",
		DefaultFormat:  "qcow2",
	})
}

func parseFilename(filename string) (distro.Fields, bool) {
	stem, format, ok := strings.Cut(filename, ".")
	if !ok {
		return distro.Fields{}, false
	}

	parts := strings.Split(stem, "-")
	if len(parts) < 4 || parts[0] != "debian" {
		return distro.Fields{}, false
	}

	return distro.Fields{
		Release: parts[1],
		Variant: parts[2],
		Arch:    parts[3],
		Format:  format,
	}, true
}
