package inspect

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/serializer"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	reg := registry.New()
	_, err := registry.RegisterDynamic(reg, "editor::Note")
	require.NoError(t, err)

	data := []byte(`{"resources":{},"entities":{"1":{"components":{"editor::Note":{"text":"a"}}},"1":{"components":{}}}}`)
	sc, err := serializer.NewJSONSerializer(nil).Deserialize(data, reg)
	require.NoError(t, err)
	require.Len(t, sc.Entities, 2)

	var out bytes.Buffer
	require.NoError(t, report(&out, "level.json", "json", data, sc, reg, true))

	require.Contains(t, out.String(), "ENTITIES (2, 1 AFTER MERGING)")
	require.Contains(t, out.String(), serializer.FingerprintString(data))
	require.Contains(t, out.String(), "editor::Note = map[text:a]")
}
