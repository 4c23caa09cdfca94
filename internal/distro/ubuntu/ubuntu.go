// Package ubuntu teaches the resolver the Ubuntu cloud-image naming scheme.
// Artifacts look like ubuntu-24.04-server-cloudimg-amd64.img; trailing
// qualifiers (ubuntu-24.04-server-cloudimg-amd64-disk-kvm.img) fold into the
// variant so they remain selectable.
package ubuntu

import (
	"strings"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
)

const Name = "ubuntu"

// Register adds the Ubuntu descriptor to the distro registry.
func Register() {
	distro.Register(distro.Descriptor{
		Name:           Name,
		ParseFilename:  parseFilename,
		NativeArch:     distro.DebianArch,
		DefaultVariant: "server",
		DefaultFormat:  "img",
	})
}

func parseFilename(filename string) (distro.Fields, bool) {
	// The release token carries a dot (24.04), so the extension is split on
	// the last dot, not the first.
	idx := strings.LastIndex(filename, ".")
	if idx <= 0 || idx == len(filename)-1 {
		return distro.Fields{}, false
	}
	stem, format := filename[:idx], filename[idx+1:]

	parts := strings.Split(stem, "-")
	if len(parts) < 5 || parts[0] != "ubuntu" || parts[3] != "cloudimg" {
		return distro.Fields{}, false
	}

	variant := parts[2]
	if len(parts) > 5 {
		variant = variant + "-" + strings.Join(parts[5:], "-")
	}

	return distro.Fields{
		Release: parts[1],
		Variant: variant,
		Arch:    parts[4],
		Format:  format,
	}, true
}
