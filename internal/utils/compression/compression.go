// Package compression decompresses downloaded image payloads in-process.
// Decompression runs strictly after integrity verification: the digest in
// the manifest covers the compressed bytes as published.
package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec identifies a supported compression container.
type Codec string

const (
	XZ   Codec = "xz"
	Zstd Codec = "zst"
	Gzip Codec = "gz"
	None Codec = ""
)

// DetectCodec inspects a filename extension and reports the codec, if any.
func DetectCodec(filename string) Codec {
	switch {
	case strings.HasSuffix(filename, ".xz"):
		return XZ
	case strings.HasSuffix(filename, ".zst"), strings.HasSuffix(filename, ".zstd"):
		return Zstd
	case strings.HasSuffix(filename, ".gz"):
		return Gzip
	default:
		return None
	}
}

// TrimSuffix returns the filename with the codec's extension removed.
func TrimSuffix(filename string, codec Codec) string {
	switch codec {
	case XZ:
		return strings.TrimSuffix(filename, ".xz")
	case Zstd:
		return strings.TrimSuffix(strings.TrimSuffix(filename, ".zstd"), ".zst")
	case Gzip:
		return strings.TrimSuffix(filename, ".gz")
	default:
		return filename
	}
}

// Decompress expands data with the given codec and returns the plain bytes.
func Decompress(data []byte, codec Codec) ([]byte, error) {
	r, err := reader(bytes.NewReader(data), codec)
	if err != nil {
		return nil, fmt.Errorf("opening %s stream: %w", codec, err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s stream: %w", codec, err)
	}
	return out, nil
}

func reader(src io.Reader, codec Codec) (io.Reader, error) {
	switch codec {
	case XZ:
		return xz.NewReader(src)
	case Zstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case Gzip:
		return gzip.NewReader(src)
	case None:
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported codec: %q", codec)
	}
}
