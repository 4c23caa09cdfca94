package distro

import (
	"strings"
	"testing"

	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
)

func registerTestDescriptor(t *testing.T, name string) {
	t.Helper()
	Register(Descriptor{
		Name: name,
		ParseFilename: func(filename string) (Fields, bool) {
			return Fields{}, false
		},
		NativeArch:     DebianArch,
		DefaultVariant: "generic",
		DefaultFormat:  "qcow2",
	})
	t.Cleanup(func() { delete(descriptors, name) })
}

func TestLoadIndexBindsRegisteredDescriptor(t *testing.T) {
	registerTestDescriptor(t, "testdistro")

	err := LoadIndex([]byte(`
sources:
  - name: testdistro
    base_url: https://images.example.test/{release}/latest
    manifest: SHA512SUMS
    algorithm: sha512
    grammar: coreutils
    releases: ["2", "1"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src, ok := Get("testdistro")
	if !ok {
		t.Fatal("source not found after load")
	}
	if src.Algorithm != verify.SHA512 {
		t.Errorf("algorithm = %s, want sha512", src.Algorithm)
	}
	if src.Grammar != manifest.Coreutils {
		t.Errorf("grammar = %v, want coreutils", src.Grammar)
	}
	if got := src.ManifestURL("2", "amd64"); got != "https://images.example.test/2/latest/SHA512SUMS" {
		t.Errorf("ManifestURL = %q", got)
	}
	if len(src.Releases) != 2 || src.Releases[0] != "2" {
		t.Errorf("releases not carried: %v", src.Releases)
	}
}

func TestLoadIndexRejectsUnregisteredDistro(t *testing.T) {
	err := LoadIndex([]byte(`
sources:
  - name: notregistered
    base_url: https://images.example.test/{release}/
    manifest: SHA256SUMS
    algorithm: sha256
    grammar: coreutils
`))
	if err == nil {
		t.Fatal("expected error for unregistered distro")
	}
	if !strings.Contains(err.Error(), "notregistered") {
		t.Errorf("error should name the offending distro: %v", err)
	}
}

func TestLoadIndexRejectsSchemaViolations(t *testing.T) {
	registerTestDescriptor(t, "testdistro")

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing manifest field",
			yaml: `
sources:
  - name: testdistro
    base_url: https://images.example.test/{release}/
    algorithm: sha256
    grammar: coreutils
`,
		},
		{
			name: "unknown algorithm",
			yaml: `
sources:
  - name: testdistro
    base_url: https://images.example.test/{release}/
    manifest: SHA256SUMS
    algorithm: crc32
    grammar: coreutils
`,
		},
		{
			name: "unknown grammar",
			yaml: `
sources:
  - name: testdistro
    base_url: https://images.example.test/{release}/
    manifest: SHA256SUMS
    algorithm: sha256
    grammar: freeform
`,
		},
		{
			name: "empty sources",
			yaml: `sources: []`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := LoadIndex([]byte(tc.yaml)); err == nil {
				t.Error("expected schema rejection")
			}
		})
	}
}

func TestEmbeddedDefaultIndex(t *testing.T) {
	for _, name := range []string{"debian", "ubuntu", "almalinux"} {
		registerTestDescriptor(t, name)
	}

	if err := LoadIndex(defaultIndex); err != nil {
		t.Fatalf("embedded index must load: %v", err)
	}

	names := Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 sources, got %v", names)
	}
	for _, name := range []string{"almalinux", "debian", "ubuntu"} {
		if _, ok := Get(name); !ok {
			t.Errorf("source %q missing from embedded index", name)
		}
	}
}

func TestReleaseURLSubstitutesNativeArch(t *testing.T) {
	src := &Source{
		Descriptor: Descriptor{
			Name:       "test",
			NativeArch: EnterpriseArch,
		},
		BaseURL: "https://repo.example.test/{release}/cloud/{arch}/images",
	}

	got := src.ReleaseURL("9", "amd64")
	want := "https://repo.example.test/9/cloud/x86_64/images/"
	if got != want {
		t.Errorf("ReleaseURL = %q, want %q", got, want)
	}
}

func TestArchAliases(t *testing.T) {
	tests := []struct {
		fn     func(string) string
		in     string
		want   string
		family string
	}{
		{DebianArch, "x86_64", "amd64", "debian"},
		{DebianArch, "aarch64", "arm64", "debian"},
		{DebianArch, "amd64", "amd64", "debian"},
		{DebianArch, "RISCV64", "riscv64", "debian"},
		{EnterpriseArch, "amd64", "x86_64", "enterprise"},
		{EnterpriseArch, "arm64", "aarch64", "enterprise"},
		{EnterpriseArch, "x86_64", "x86_64", "enterprise"},
	}

	for _, tc := range tests {
		if got := tc.fn(tc.in); got != tc.want {
			t.Errorf("%s alias of %q = %q, want %q", tc.family, tc.in, got, tc.want)
		}
	}
}
