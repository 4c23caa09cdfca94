package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtstack/cloud-image-fetcher/internal/config"
	"github.com/virtstack/cloud-image-fetcher/internal/fetcher"
	"github.com/virtstack/cloud-image-fetcher/internal/pipeline"
	"github.com/virtstack/cloud-image-fetcher/internal/resolver"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
)

// Fetch command flags
var (
	fetchArch       string
	fetchVariant    string
	fetchFormats    []string
	fetchOutputDir  string
	fetchOutputFile string
	fetchWorkers    int  = -1 // -1 means use config file value
	fetchNoProgress bool
	fetchDecompress bool
)

// createFetchCommand creates the fetch subcommand
func createFetchCommand() *cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch [flags] DISTRO RELEASE",
		Short: "Download and verify a cloud image",
		Long: `Download a cloud image for the given distribution and release.

The image is resolved against the distribution's published checksum
manifest, downloaded, verified against the published digest, and only then
written to the output directory. On any failure the destination path is
left untouched.

Examples:
  cloud-image-fetcher fetch debian bookworm
  cloud-image-fetcher fetch debian bookworm --arch arm64 --variant nocloud
  cloud-image-fetcher fetch ubuntu noble --format img --output ./images
  cloud-image-fetcher fetch almalinux 9 --arch x86_64 --format qcow2`,
		Args: cobra.ExactArgs(2),
		RunE: executeFetch,
	}

	fetchCmd.Flags().StringVarP(&fetchArch, "arch", "a", "amd64",
		"Target architecture (aliases like x86_64 are normalized per distro)")
	fetchCmd.Flags().StringVar(&fetchVariant, "variant", "",
		"Image variant (e.g. genericcloud, nocloud); empty uses the distro default")
	fetchCmd.Flags().StringSliceVarP(&fetchFormats, "format", "f", nil,
		"Image format(s) to fetch (e.g. qcow2, raw); empty uses the distro default")
	fetchCmd.Flags().StringVarP(&fetchOutputDir, "output", "o", "",
		"Destination directory (default: config output_dir)")
	fetchCmd.Flags().StringVar(&fetchOutputFile, "output-file", "",
		"Explicit destination filename (single format only)")
	fetchCmd.Flags().IntVarP(&fetchWorkers, "workers", "w", -1,
		"Concurrent downloads when fetching multiple formats")
	fetchCmd.Flags().BoolVar(&fetchNoProgress, "no-progress", false,
		"Disable the download progress bar")
	fetchCmd.Flags().BoolVar(&fetchDecompress, "decompress", false,
		"Decompress .xz/.zst/.gz payloads after verification")

	return fetchCmd
}

// progressEnabled reports whether the download progress bar should render:
// enabled in config, not suppressed by --no-progress, and only for a single
// job so concurrent bars don't interleave.
func progressEnabled(jobs int) bool {
	return config.Global().Progress && !fetchNoProgress && jobs == 1
}

// executeFetch handles the fetch command execution logic
func executeFetch(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	if err := loadSources(); err != nil {
		return err
	}

	outputDir := fetchOutputDir
	if outputDir == "" {
		outputDir = config.OutputDir()
	}
	workers := fetchWorkers
	if workers < 1 {
		workers = config.Workers()
	}

	formats := fetchFormats
	if len(formats) == 0 {
		formats = []string{""} // distro default
	}
	if fetchOutputFile != "" && len(formats) > 1 {
		return fmt.Errorf("--output-file cannot be combined with multiple --format values")
	}

	jobs := make([]pipeline.Job, 0, len(formats))
	for _, format := range formats {
		jobs = append(jobs, pipeline.Job{
			Request: resolver.Request{
				Distro:  args[0],
				Release: args[1],
				Arch:    fetchArch,
				Variant: fetchVariant,
				Format:  format,
			},
			OutputDir:  outputDir,
			OutputFile: fetchOutputFile,
			Decompress: fetchDecompress,
		})
	}

	client := fetcher.New(fetcher.WithProgress(progressEnabled(len(jobs))))
	runner := pipeline.NewRunner(client)

	results := runner.RunAll(cmd.Context(), jobs, workers)

	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Errorf("fetch %s/%s (%s): %v",
				res.Job.Request.Distro, res.Job.Request.Release, res.Job.Request.Format, res.Err)
			continue
		}
		fmt.Printf("Fetched %s\n", res.Dest)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(results))
	}
	return nil
}
