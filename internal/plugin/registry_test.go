package plugin

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPluginsFS() fstest.MapFS {
	return fstest.MapFS{
		"extra-icons/plugin.yaml": {Data: []byte(
			"id: lermitage.intellij.extra.icons\nname: Extra Icons\nversion: 2025.1.0\ncomponents:\n  - extra-icons-core\n")},
		"java/META-INF/plugin.yaml": {Data: []byte(
			"id: com.intellij.java\nname: Java\n")},
		"broken/plugin.yaml": {Data: []byte("id: [unterminated")},
		"anonymous/plugin.yaml": {Data: []byte("name: no id\n")},
		"notes/readme.txt":      {Data: []byte("not a manifest")},
	}
}

func TestManifestRegistry_Descriptors(t *testing.T) {
	r := NewManifestRegistryFS(testPluginsFS(), discardLogger())

	descriptors, err := r.Descriptors()
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "lermitage.intellij.extra.icons", descriptors[0].ID)
	assert.Equal(t, "extra-icons/plugin.yaml", descriptors[0].Path)
	assert.Equal(t, "com.intellij.java", descriptors[1].ID)
}

func TestManifestRegistry_DescriptorFor(t *testing.T) {
	r := NewManifestRegistryFS(testPluginsFS(), discardLogger())

	desc, err := r.DescriptorFor("extra-icons-core")
	require.NoError(t, err)
	require.NotNil(t, desc)
	assert.Equal(t, Subscription.PluginID, desc.ID)

	desc, err = r.DescriptorFor("unknown-component")
	require.NoError(t, err)
	assert.Nil(t, desc)
}

func TestManifestRegistry_RegisteredIDs(t *testing.T) {
	r := NewManifestRegistryFS(testPluginsFS(), discardLogger())

	ids, err := r.RegisteredIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lermitage.intellij.extra.icons", "com.intellij.java"}, ids)
}

func TestManifestRegistry_ResolveEndToEnd(t *testing.T) {
	t.Run("direct lookup", func(t *testing.T) {
		r := NewManifestRegistryFS(testPluginsFS(), discardLogger())
		got := NewResolver(r, "extra-icons-core", discardLogger()).Resolve(context.Background())
		assert.Equal(t, Subscription, got)
	})

	t.Run("fallback scan when no plugin claims the component", func(t *testing.T) {
		fsys := fstest.MapFS{
			"free/plugin.yaml": {Data: []byte("id: lermitage.extra.icons.free\n")},
		}
		r := NewManifestRegistryFS(fsys, discardLogger())
		got := NewResolver(r, "extra-icons-core", discardLogger()).Resolve(context.Background())
		assert.Equal(t, Free, got)
	})

	t.Run("empty plugins directory", func(t *testing.T) {
		r := NewManifestRegistry(t.TempDir(), discardLogger())
		got := NewResolver(r, "extra-icons-core", discardLogger()).Resolve(context.Background())
		assert.Equal(t, NotFound, got)
	})
}
