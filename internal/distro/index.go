package distro

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/virtstack/cloud-image-fetcher/internal/distro/schema"
	"github.com/virtstack/cloud-image-fetcher/internal/manifest"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
	"github.com/virtstack/cloud-image-fetcher/internal/verify"
)

//go:embed sources.yaml
var defaultIndex []byte

// indexEntry mirrors one source block in the YAML index.
type indexEntry struct {
	Name      string   `yaml:"name"`
	BaseURL   string   `yaml:"base_url"`
	Manifest  string   `yaml:"manifest"`
	Algorithm string   `yaml:"algorithm"`
	Grammar   string   `yaml:"grammar"`
	Releases  []string `yaml:"releases,omitempty"`
}

type index struct {
	Sources []indexEntry `yaml:"sources"`
}

var (
	sourcesMu sync.RWMutex
	sources   map[string]*Source
)

// LoadIndex parses and validates a source index, binding each entry to its
// registered Descriptor. Entries naming an unregistered distribution are an
// error: a URL without a filename grammar cannot be resolved against.
func LoadIndex(data []byte) error {
	if err := schema.ValidateSourceIndex(data); err != nil {
		return fmt.Errorf("source index rejected by schema: %w", err)
	}

	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("parsing source index: %w", err)
	}
	if len(idx.Sources) == 0 {
		return fmt.Errorf("source index contains no sources")
	}

	loaded := make(map[string]*Source, len(idx.Sources))
	for _, entry := range idx.Sources {
		name := strings.ToLower(entry.Name)
		desc, ok := descriptor(name)
		if !ok {
			return fmt.Errorf("source index names unregistered distro %q (registered: %s)",
				entry.Name, strings.Join(RegisteredNames(), ", "))
		}

		algo, err := verify.ParseAlgorithm(entry.Algorithm)
		if err != nil {
			return fmt.Errorf("source %q: %w", entry.Name, err)
		}
		grammar, err := manifest.ParseGrammar(entry.Grammar)
		if err != nil {
			return fmt.Errorf("source %q: %w", entry.Name, err)
		}

		loaded[name] = &Source{
			Descriptor:   desc,
			BaseURL:      entry.BaseURL,
			ManifestName: entry.Manifest,
			Algorithm:    algo,
			Grammar:      grammar,
			Releases:     entry.Releases,
		}
	}

	sourcesMu.Lock()
	sources = loaded
	sourcesMu.Unlock()

	logger.Logger().Debugf("loaded %d image sources", len(loaded))
	return nil
}

// LoadIndexFile loads the index from path, or the embedded default index
// when path is empty.
func LoadIndexFile(path string) error {
	if path == "" {
		return LoadIndex(defaultIndex)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading source index %s: %w", path, err)
	}
	return LoadIndex(data)
}

// Get returns the configured Source for a distribution name.
func Get(name string) (*Source, bool) {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	s, ok := sources[strings.ToLower(name)]
	return s, ok
}

// Names lists all configured sources, sorted.
func Names() []string {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
