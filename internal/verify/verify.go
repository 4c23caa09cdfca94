// Package verify computes cryptographic digests over fetched payloads and
// tracks whether a payload may be persisted. The digest algorithm is a
// property of the manifest source, never guessed from the payload itself.
package verify

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Algorithm identifies the digest function a checksum manifest was
// generated with.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
	MD5    Algorithm = "md5"
)

// ParseAlgorithm maps a configuration token to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(s)) {
	case SHA256:
		return SHA256, nil
	case SHA512:
		return SHA512, nil
	case MD5:
		return MD5, nil
	default:
		return "", fmt.Errorf("unsupported digest algorithm: %q", s)
	}
}

// New returns a fresh hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New()
	case SHA512:
		return sha512.New()
	case MD5:
		return md5.New()
	default:
		panic(fmt.Sprintf("unsupported digest algorithm: %q", a))
	}
}

// Sum returns the lowercase hex digest of data.
func (a Algorithm) Sum(data []byte) string {
	h := a.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// IntegrityError reports a digest mismatch. It is always fatal to the
// attempt that produced it and must never be downgraded to a warning.
type IntegrityError struct {
	URL       string
	Algorithm Algorithm
	Expected  string
	Computed  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s digest mismatch for %s: expected %s, computed %s",
		e.Algorithm, e.URL, e.Expected, e.Computed)
}

// State tracks whether a payload has passed verification.
type State int

const (
	Unverified State = iota
	Verified
	Rejected
)

func (s State) String() string {
	switch s {
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	default:
		return "unverified"
	}
}

// Payload is a fetched byte sequence plus its verification state. It starts
// unverified and transitions exactly once, to verified or rejected.
type Payload struct {
	data  []byte
	url   string
	state State
}

// NewPayload wraps fetched bytes in an unverified Payload. url is retained
// for diagnostics only.
func NewPayload(data []byte, url string) *Payload {
	return &Payload{data: data, url: url}
}

func (p *Payload) Bytes() []byte { return p.data }
func (p *Payload) URL() string   { return p.url }
func (p *Payload) State() State  { return p.state }

// Derive returns a new verified Payload holding transformed bytes. Only
// call with data produced deterministically from this payload after it
// passed verification (e.g. decompression); any other use defeats the
// state machine, so an unverified receiver panics.
func (p *Payload) Derive(data []byte) *Payload {
	if p.state != Verified {
		panic(fmt.Sprintf("Derive called on %s payload", p.state))
	}
	return &Payload{data: data, url: p.url, state: Verified}
}

// Verify computes the payload digest with algo and compares it to expected,
// case-insensitively. On match the payload becomes verified; on mismatch it
// becomes rejected and an IntegrityError is returned.
func (p *Payload) Verify(algo Algorithm, expected string) error {
	computed := algo.Sum(p.data)
	if !strings.EqualFold(computed, expected) {
		p.state = Rejected
		return &IntegrityError{
			URL:       p.url,
			Algorithm: algo,
			Expected:  strings.ToLower(expected),
			Computed:  computed,
		}
	}
	p.state = Verified
	return nil
}
