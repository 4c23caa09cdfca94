package main

import (
	"fmt"
	"path/filepath"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/virtstack/cloud-image-fetcher/internal/config"
	"github.com/virtstack/cloud-image-fetcher/internal/distro"
	"github.com/virtstack/cloud-image-fetcher/internal/fetcher"
	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/resolver"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
	"github.com/virtstack/cloud-image-fetcher/internal/writer"
)

// Pick command flags
var (
	pickArch      string
	pickOutputDir string
)

// createPickCommand creates the pick subcommand
func createPickCommand() *cobra.Command {
	pickCmd := &cobra.Command{
		Use:   "pick",
		Short: "Interactively pick and fetch a cloud image",
		Long: `Walk through distro, release and artifact selection with a fuzzy
picker, then download and verify the chosen image.`,
		Args: cobra.NoArgs,
		RunE: executePick,
	}

	pickCmd.Flags().StringVarP(&pickArch, "arch", "a", "amd64",
		"Target architecture")
	pickCmd.Flags().StringVarP(&pickOutputDir, "output", "o", "",
		"Destination directory (default: config output_dir)")

	return pickCmd
}

// executePick handles the pick command execution logic
func executePick(cmd *cobra.Command, args []string) error {
	if err := loadSources(); err != nil {
		return err
	}

	names := distro.Names()
	idx, err := fuzzyfinder.Find(names, func(i int) string { return names[i] },
		fuzzyfinder.WithHeader("Select Distro"))
	if err != nil {
		return fmt.Errorf("no distro selected: %w", err)
	}
	src, _ := distro.Get(names[idx])

	releases := src.Releases
	if len(releases) == 0 {
		return fmt.Errorf("source %q lists no releases to pick from", src.Name)
	}
	idx, err = fuzzyfinder.Find(releases, func(i int) string { return releases[i] },
		fuzzyfinder.WithHeader("Select Release"))
	if err != nil {
		return fmt.Errorf("no release selected: %w", err)
	}
	release := releases[idx]

	client := fetcher.New(fetcher.WithProgress(config.Global().Progress))
	manifests := manifest.NewFetcher(client)
	m, err := manifests.Fetch(cmd.Context(), src.ManifestURL(release, pickArch), src.Grammar)
	if err != nil {
		return err
	}

	// Narrow to the requested arch but keep every variant/format on offer.
	var entries []manifest.Entry
	native := src.NativeArch(pickArch)
	for _, entry := range m.Entries {
		if fields, ok := src.ParseFilename(entry.Filename); ok && fields.Arch == native {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return &resolver.NoMatchError{
			Request:     resolver.Request{Distro: src.Name, Release: release, Arch: native},
			ManifestURL: m.URL,
			Entries:     len(m.Entries),
		}
	}

	idx, err = fuzzyfinder.Find(entries, func(i int) string { return entries[i].Filename },
		fuzzyfinder.WithHeader("Select Image Artifact"))
	if err != nil {
		return fmt.Errorf("no artifact selected: %w", err)
	}
	chosen := entries[idx]

	asset := &resolver.Asset{
		URL:       src.ReleaseURL(release, pickArch) + chosen.Filename,
		Filename:  chosen.Filename,
		Digest:    chosen.Digest,
		Algorithm: src.Algorithm,
	}

	data, err := client.Fetch(cmd.Context(), asset.URL)
	if err != nil {
		return fmt.Errorf("fetching image: %w", err)
	}

	payload := verify.NewPayload(data, asset.URL)
	if err := payload.Verify(asset.Algorithm, asset.Digest); err != nil {
		return err
	}

	outputDir := pickOutputDir
	if outputDir == "" {
		outputDir = config.OutputDir()
	}
	dest := filepath.Join(outputDir, asset.Filename)
	if err := writer.Write(payload, dest); err != nil {
		return err
	}

	fmt.Printf("Fetched %s\n", dest)
	return nil
}
