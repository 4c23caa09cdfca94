// Package pipeline wires the stages of one image fetch: manifest retrieval,
// resolution, download, integrity verification, persistence. Stages run
// strictly in sequence for one request; independent requests share nothing
// and may run in parallel.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/virtstack/cloud-image-fetcher/internal/distro"
	"github.com/virtstack/cloud-image-fetcher/internal/fetcher"
	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/resolver"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/compression"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
	"github.com/virtstack/cloud-image-fetcher/internal/writer"
)

// Job is one (request, destination) pair.
type Job struct {
	Request resolver.Request

	// OutputDir receives the image under its resolved filename unless
	// OutputFile overrides the name.
	OutputDir  string
	OutputFile string

	// Decompress expands a compressed payload (.xz/.zst/.gz) after
	// verification, dropping the codec suffix from the destination name.
	Decompress bool
}

// Runner executes fetch jobs. Every run re-fetches and re-verifies from
// scratch: verified state from a prior run is never trusted.
type Runner struct {
	client    *fetcher.Client
	manifests *manifest.Fetcher
}

func NewRunner(client *fetcher.Client) *Runner {
	return &Runner{
		client:    client,
		manifests: manifest.NewFetcher(client),
	}
}

// Run executes one job end to end and returns the destination path of the
// written image. On any failure the destination is left untouched.
func (r *Runner) Run(ctx context.Context, job Job) (string, error) {
	log := logger.Logger()
	req := job.Request

	src, ok := distro.Get(req.Distro)
	if !ok {
		return "", fmt.Errorf("unknown distro %q (configured: %v)", req.Distro, distro.Names())
	}

	manifestURL := src.ManifestURL(req.Release, req.Arch)
	m, err := r.manifests.Fetch(ctx, manifestURL, src.Grammar)
	if err != nil {
		return "", fmt.Errorf("fetching manifest: %w", err)
	}

	asset, err := resolver.Resolve(req, src, m)
	if err != nil {
		return "", err
	}
	log.Infof("resolved %s/%s -> %s", req.Distro, req.Release, asset.Filename)

	data, err := r.client.Fetch(ctx, asset.URL)
	if err != nil {
		return "", fmt.Errorf("fetching image: %w", err)
	}

	payload := verify.NewPayload(data, asset.URL)
	if err := payload.Verify(asset.Algorithm, asset.Digest); err != nil {
		return "", err
	}
	log.Infof("verified %s (%s, %d bytes)", asset.Filename, asset.Algorithm, len(data))

	name := asset.Filename
	if job.Decompress {
		if codec := compression.DetectCodec(name); codec != compression.None {
			plain, err := compression.Decompress(payload.Bytes(), codec)
			if err != nil {
				return "", fmt.Errorf("decompressing %s: %w", name, err)
			}
			name = compression.TrimSuffix(name, codec)
			// The published digest covered the compressed bytes, which
			// passed verification above.
			payload = payload.Derive(plain)
		}
	}

	if job.OutputFile != "" {
		name = job.OutputFile
	}
	dest := filepath.Join(job.OutputDir, name)

	if err := writer.Write(payload, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Result pairs a job with its outcome.
type Result struct {
	Job  Job
	Dest string
	Err  error
}

// RunAll executes jobs over a pool of workers and returns one Result per
// job, in completion order. A failed job never aborts its siblings.
func (r *Runner) RunAll(ctx context.Context, jobs []Job, workers int) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan Job, len(jobs))
	results := make(chan Result, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				dest, err := r.Run(ctx, job)
				results <- Result{Job: job, Dest: dest, Err: err}
			}
		}()
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(jobs))
	for res := range results {
		out = append(out, res)
	}
	return out
}
