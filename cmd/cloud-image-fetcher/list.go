package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
	"github.com/virtstack/cloud-image-fetcher/internal/fetcher"
	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/resolver"
)

// List command flags
var (
	listArch    string
	listVariant string
	listFormat  string
	listAll     bool
)

// createListCommand creates the list subcommand
func createListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list [flags] DISTRO RELEASE",
		Short: "List images published for a release",
		Long: `List the image artifacts a release's checksum manifest publishes,
optionally narrowed by the same filters fetch uses.

Examples:
  cloud-image-fetcher list debian bookworm
  cloud-image-fetcher list ubuntu noble --arch arm64
  cloud-image-fetcher list almalinux 9 --all`,
		Args: cobra.ExactArgs(2),
		RunE: executeList,
	}

	listCmd.Flags().StringVarP(&listArch, "arch", "a", "amd64",
		"Target architecture filter")
	listCmd.Flags().StringVar(&listVariant, "variant", "",
		"Variant filter; empty uses the distro default")
	listCmd.Flags().StringVarP(&listFormat, "format", "f", "",
		"Format filter; empty uses the distro default")
	listCmd.Flags().BoolVar(&listAll, "all", false,
		"List every parseable artifact, ignoring the filters")

	return listCmd
}

// executeList handles the list command execution logic
func executeList(cmd *cobra.Command, args []string) error {
	if err := loadSources(); err != nil {
		return err
	}

	src, ok := distro.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown distro %q (configured: %v)", args[0], distro.Names())
	}

	client := fetcher.New(fetcher.WithProgress(false))
	manifests := manifest.NewFetcher(client)

	release := args[1]
	m, err := manifests.Fetch(cmd.Context(), src.ManifestURL(release, listArch), src.Grammar)
	if err != nil {
		return err
	}

	entries := m.Entries
	if !listAll {
		entries = resolver.Filter(resolver.Request{
			Distro:  args[0],
			Release: release,
			Arch:    listArch,
			Variant: listVariant,
			Format:  listFormat,
		}, src, m)
	}

	if len(entries) == 0 {
		return fmt.Errorf("no matching images for %s/%s", args[0], release)
	}

	for _, entry := range entries {
		fields, ok := src.ParseFilename(entry.Filename)
		if !ok {
			fmt.Printf("%-60s  (unparsed)\n", entry.Filename)
			continue
		}
		fmt.Printf("%-60s  variant=%s arch=%s format=%s\n",
			entry.Filename, fields.Variant, fields.Arch, fields.Format)
	}
	return nil
}
