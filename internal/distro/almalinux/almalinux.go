// Package almalinux teaches the resolver the AlmaLinux cloud-image naming
// scheme. Artifacts look like AlmaLinux-9-GenericCloud-9.4-20240507.x86_64.qcow2
// (or -latest symlink names) and the CHECKSUM listing uses the BSD grammar.
package almalinux

import (
	"strings"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
)

const Name = "almalinux"

// Register adds the AlmaLinux descriptor to the distro registry.
func Register() {
	distro.Register(distro.Descriptor{
		Name:           Name,
		ParseFilename:  parseFilename,
		NativeArch:     distro.EnterpriseArch,
		DefaultVariant: "genericcloud",
		DefaultFormat:  "qcow2",
	})
}

// parseFilename splits AlmaLinux-<major>-<Variant>-<version>.<arch>.<ext>.
// The arch sits between the last two dots, unlike the Debian family where
// it is a dash-delimited token.
func parseFilename(filename string) (distro.Fields, bool) {
	last := strings.LastIndex(filename, ".")
	if last <= 0 {
		return distro.Fields{}, false
	}
	format := filename[last+1:]

	prev := strings.LastIndex(filename[:last], ".")
	if prev <= 0 {
		return distro.Fields{}, false
	}
	arch := filename[prev+1 : last]
	stem := filename[:prev]

	parts := strings.Split(stem, "-")
	if len(parts) < 3 || !strings.EqualFold(parts[0], "AlmaLinux") {
		return distro.Fields{}, false
	}

	return distro.Fields{
		Release: parts[1],
		Variant: strings.ToLower(parts[2]),
		Arch:    arch,
		Format:  format,
	}, true
}
