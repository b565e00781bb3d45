package serializer

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/VictoriaMetrics/metrics"
	"github.com/cespare/xxhash/v2"
)

// WithMetrics wraps a serializer so every call is counted in the global
// VictoriaMetrics set, labeled with the format name.
//
// Exported series:
//
//	dscene_serialize_total{format}, dscene_serialize_errors_total{format},
//	dscene_serialize_bytes_total{format}, dscene_serialize_duration_seconds{format}
//	and the same four for deserialize.
func WithMetrics(s ISceneSerializer) ISceneSerializer {
	if _, ok := s.(*meteredSerializer); ok {
		return s
	}
	return &meteredSerializer{inner: s}
}

// meteredSerializer decorates an ISceneSerializer with metrics
type meteredSerializer struct {
	inner ISceneSerializer
}

func (m *meteredSerializer) series(op, name string) string {
	return fmt.Sprintf(`dscene_%s_%s{format=%q}`, op, name, m.inner.Name())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISceneSerializer)
// --------------------------------------------------------------------------

func (m *meteredSerializer) Name() string {
	return m.inner.Name()
}

func (m *meteredSerializer) Serialize(s *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	start := time.Now()
	b, err := m.inner.Serialize(s, reg)
	m.observe("serialize", start, len(b), err)
	return b, err
}

func (m *meteredSerializer) Deserialize(b []byte, reg *registry.TypeRegistry) (*scene.Scene, error) {
	start := time.Now()
	s, err := m.inner.Deserialize(b, reg)
	m.observe("deserialize", start, len(b), err)
	return s, err
}

func (m *meteredSerializer) observe(op string, start time.Time, size int, err error) {
	metrics.GetOrCreateCounter(m.series(op, "total")).Inc()
	metrics.GetOrCreateHistogram(m.series(op, "duration_seconds")).UpdateDuration(start)
	if err != nil {
		metrics.GetOrCreateCounter(m.series(op, "errors_total")).Inc()
		return
	}
	metrics.GetOrCreateCounter(m.series(op, "bytes_total")).Add(size)
}

// WriteMetrics writes all collected metrics in Prometheus text format to w
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}

// --------------------------------------------------------------------------
// Fingerprint
// --------------------------------------------------------------------------

// Fingerprint returns the xxhash64 of an encoded scene. Equal scenes encoded
// with the same deterministic format have equal fingerprints.
func Fingerprint(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// FingerprintString returns the fingerprint as 16 hex digits
func FingerprintString(data []byte) string {
	return fmt.Sprintf("%016x", Fingerprint(data))
}
