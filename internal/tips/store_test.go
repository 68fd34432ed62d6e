package tips

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTips() []Tip {
	return []Tip{
		{ID: 1, Category: CategorySleep, Source: "Dr. X", Title: "Cold shower", Content: "Take a 2-minute cold shower each morning."},
		{ID: 2, Category: CategoryDigitalDetox, Source: "Café <Host> & Co", Title: "Phone away", Content: "Keep your phone in another room at night."},
	}
}

func TestLoadMissingFile(t *testing.T) {
	got := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	assert.Empty(t, Load(path))

	require.NoError(t, os.WriteFile(path, []byte(`{"id": 1}`), 0o644))
	assert.Empty(t, Load(path), "object instead of array is treated as corrupt")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tips.json")
	require.NoError(t, Save(path, sampleTips()))
	assert.Equal(t, sampleTips(), Load(path))
}

func TestSaveIsByteStable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	require.NoError(t, Save(first, sampleTips()))
	require.NoError(t, Save(second, Load(first)))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestMarshalFormat(t *testing.T) {
	data, err := Marshal(sampleTips()[:1])
	require.NoError(t, err)
	want := `[
  {
    "id": 1,
    "category": "Sleep",
    "source": "Dr. X",
    "title": "Cold shower",
    "content": "Take a 2-minute cold shower each morning."
  }
]
`
	assert.Equal(t, want, string(data))

	data, err = Marshal(sampleTips())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Café <Host> & Co", "no HTML or non-ASCII escaping")
}

func TestMarshalEmpty(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestRenderDataTS(t *testing.T) {
	out, err := RenderDataTS(sampleTips())
	require.NoError(t, err)
	src := string(out)

	assert.True(t, strings.HasPrefix(src, "export interface Tip {"))
	assert.Contains(t, src, "export const tips: Tip[] = [\n  {\n    \"id\": 1,")
	assert.Contains(t, src, "];\n\nexport const categoryColors")
	assert.Contains(t, src, `"Digital Detox": { bg: "bg-violet-100", text: "text-violet-700" },`)
	assert.Contains(t, src, `Sleep: { bg: "bg-indigo-100", text: "text-indigo-700" },`)
	for _, c := range Categories() {
		assert.Contains(t, src, string(c))
	}
	assert.Equal(t, len(Categories()), strings.Count(src, "bg: \"bg-"))
	assert.True(t, strings.HasSuffix(src, "};\n"))
}

func TestWriteDataTSRegeneratesInFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib", "data.ts")
	require.NoError(t, WriteDataTS(path, sampleTips()))
	require.NoError(t, WriteDataTS(path, sampleTips()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Phone away")
}
