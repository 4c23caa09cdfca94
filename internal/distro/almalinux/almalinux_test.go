package almalinux

import (
	"testing"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     distro.Fields
		ok       bool
	}{
		{
			name:     "versioned artifact",
			filename: "AlmaLinux-9-GenericCloud-9.4-20240507.x86_64.qcow2",
			want:     distro.Fields{Release: "9", Variant: "genericcloud", Arch: "x86_64", Format: "qcow2"},
			ok:       true,
		},
		{
			name:     "latest symlink name",
			filename: "AlmaLinux-9-GenericCloud-latest.aarch64.qcow2",
			want:     distro.Fields{Release: "9", Variant: "genericcloud", Arch: "aarch64", Format: "qcow2"},
			ok:       true,
		},
		{
			name:     "uefi build of genericcloud",
			filename: "AlmaLinux-8-GenericCloud-UEFI-8.10-20240530.x86_64.qcow2",
			want:     distro.Fields{Release: "8", Variant: "genericcloud", Arch: "x86_64", Format: "qcow2"},
			ok:       true,
		},
		{
			name:     "wrong prefix",
			filename: "Rocky-9-GenericCloud.latest.x86_64.qcow2",
			ok:       false,
		},
		{
			name:     "single dot only",
			filename: "AlmaLinux-9-GenericCloud.qcow2",
			ok:       false,
		},
		{
			name:     "manifest sidecar",
			filename: "CHECKSUM",
			ok:       false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseFilename(tc.filename)
			if ok != tc.ok {
				t.Fatalf("parseFilename(%q) ok = %v, want %v", tc.filename, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("parseFilename(%q) = %+v, want %+v", tc.filename, got, tc.want)
			}
		})
	}
}
