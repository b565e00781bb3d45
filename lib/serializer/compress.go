package serializer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used by WithCompression
type Compression string

const (
	CompressionNone Compression = ""
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// zstdEncoder and zstdDecoder are shared, both are safe for concurrent use
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("serializer: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("serializer: zstd decoder initialization failed: " + err.Error())
	}
}

// ParseCompression converts a name (zstd, lz4, none or empty) to a Compression
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(name)); c {
	case CompressionNone, CompressionZstd, CompressionLZ4:
		return c, nil
	case "none":
		return CompressionNone, nil
	}
	return "", fmt.Errorf("unknown compression %q, must be one of zstd, lz4, none", name)
}

// CompressionForPath returns the compression implied by a .zst or .lz4
// suffix, and the path without that suffix
func CompressionForPath(path string) (Compression, string) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zst"):
		return CompressionZstd, path[:len(path)-len(".zst")]
	case strings.HasSuffix(lower, ".lz4"):
		return CompressionLZ4, path[:len(path)-len(".lz4")]
	}
	return CompressionNone, path
}

// WithCompression wraps a serializer so its output is compressed with c.
// CompressionNone returns s unchanged.
func WithCompression(s ISceneSerializer, c Compression) ISceneSerializer {
	if c == CompressionNone {
		return s
	}
	return &compressedSerializer{inner: s, compression: c}
}

// compressedSerializer decorates an ISceneSerializer with a compression step
type compressedSerializer struct {
	inner       ISceneSerializer
	compression Compression
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISceneSerializer)
// --------------------------------------------------------------------------

func (c *compressedSerializer) Name() string {
	return c.inner.Name() + "+" + string(c.compression)
}

func (c *compressedSerializer) Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	b, err := c.inner.Serialize(s, reg)
	if err != nil {
		return nil, err
	}

	switch c.compression {
	case CompressionZstd:
		return zstdEncoder.EncodeAll(b, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(b); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown compression %q", c.compression)
}

func (c *compressedSerializer) Deserialize(b []byte, reg *registry.TypeRegistry) (*scene.Scene, error) {
	var (
		raw []byte
		err error
	)
	switch c.compression {
	case CompressionZstd:
		raw, err = zstdDecoder.DecodeAll(b, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	case CompressionLZ4:
		raw, err = io.ReadAll(lz4.NewReader(bytes.NewReader(b)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown compression %q", c.compression)
	}
	return c.inner.Deserialize(raw, reg)
}
