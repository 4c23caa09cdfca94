// Package manifest retrieves and tokenizes upstream checksum listings.
// A manifest is an ordered sequence of (digest, filename) entries; ordering
// is preserved because resolution is first-match-wins over manifest order.
package manifest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/virtstack/cloud-image-fetcher/internal/fetcher"
	"github.com/virtstack/cloud-image-fetcher/internal/utils/logger"
)

// ErrEmptyManifest indicates the upstream returned a success status with an
// empty body, or a body containing no parseable entries.
var ErrEmptyManifest = errors.New("manifest is empty")

// Grammar selects the line format a checksum listing uses.
type Grammar string

const (
	// Coreutils lines look like "<hex>  [*]<filename>" (sha256sum/sha512sum
	// output, the Debian and Ubuntu convention).
	Coreutils Grammar = "coreutils"
	// BSD lines look like "SHA256 (<filename>) = <hex>" (the AlmaLinux
	// CHECKSUM convention).
	BSD Grammar = "bsd"
)

// ParseGrammar maps a configuration token to a Grammar.
func ParseGrammar(s string) (Grammar, error) {
	switch Grammar(strings.ToLower(s)) {
	case Coreutils:
		return Coreutils, nil
	case BSD:
		return BSD, nil
	default:
		return "", fmt.Errorf("unsupported manifest grammar: %q", s)
	}
}

// Entry is one tokenized manifest line.
type Entry struct {
	Digest   string // lowercase hex
	Filename string
}

// Manifest is the tokenized form of one checksum listing.
type Manifest struct {
	URL     string
	Entries []Entry
}

// Parse tokenizes a manifest body. Lines that do not conform to the grammar
// (comments, PGP armor, blank lines) are skipped rather than treated as an
// error; upstream listings routinely carry such noise.
func Parse(body string, grammar Grammar) []Entry {
	var entries []Entry
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var entry Entry
		var ok bool
		switch grammar {
		case BSD:
			entry, ok = parseBSDLine(line)
		default:
			entry, ok = parseCoreutilsLine(line)
		}
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// parseCoreutilsLine tokenizes "<hex>  [*]<filename>". The digest is the
// leading whitespace-delimited token; a "*" binary marker on the filename
// is stripped.
func parseCoreutilsLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, false
	}
	digest := strings.ToLower(fields[0])
	if !isHexDigest(digest) {
		return Entry{}, false
	}
	filename := strings.TrimPrefix(fields[1], "*")
	if filename == "" {
		return Entry{}, false
	}
	return Entry{Digest: digest, Filename: filename}, true
}

// parseBSDLine tokenizes "ALGO (<filename>) = <hex>".
func parseBSDLine(line string) (Entry, bool) {
	open := strings.Index(line, "(")
	end := strings.LastIndex(line, ")")
	if open < 0 || end < open {
		return Entry{}, false
	}
	filename := line[open+1 : end]
	rest := strings.TrimSpace(line[end+1:])
	if !strings.HasPrefix(rest, "=") {
		return Entry{}, false
	}
	digest := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rest, "=")))
	if filename == "" || !isHexDigest(digest) {
		return Entry{}, false
	}
	return Entry{Digest: digest, Filename: filename}, true
}

func isHexDigest(s string) bool {
	if len(s) < 32 || len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

// Fetcher retrieves checksum manifests over HTTP. One attempt per call;
// retry policy belongs to the caller.
type Fetcher struct {
	client *fetcher.Client
}

func NewFetcher(client *fetcher.Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch downloads and tokenizes the manifest at url.
func (f *Fetcher) Fetch(ctx context.Context, url string, grammar Grammar) (*Manifest, error) {
	log := logger.Logger()

	body, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s: %w", url, ErrEmptyManifest)
	}

	entries := Parse(string(body), grammar)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: no entries parsed: %w", url, ErrEmptyManifest)
	}

	log.Debugf("parsed %d manifest entries from %s", len(entries), url)
	return &Manifest{URL: url, Entries: entries}, nil
}
