package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

const licenseRequiredKey = "license.required.msg"

func TestDefaultBundle(t *testing.T) {
	b := Default()
	assert.Equal(t, language.English, b.Locale())
	assert.Contains(t, b.Message(licenseRequiredKey), "requires a valid license")
}

func TestForLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   language.Tag
	}{
		{"en", language.English},
		{"fr", language.French},
		{"fr-CA", language.French},
		{"de", language.English},
		{"not a locale", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, ForLocale(tt.locale).Locale())
		})
	}

	assert.Contains(t, ForLocale("fr").Message(licenseRequiredKey), "licence valide")
}

func TestEveryLocaleDefinesBaseKeys(t *testing.T) {
	c := DefaultCatalog()
	for key := range c.keys[BaseLocale] {
		for _, tag := range c.Locales() {
			assert.True(t, c.Has(tag, key), "%s missing %s", tag, key)
		}
	}
}

func TestUnknownKeyFallsBackToKey(t *testing.T) {
	assert.Equal(t, "missing.key", Default().Message("missing.key"))
}

func TestLoadFromFS(t *testing.T) {
	t.Run("missing base locale", func(t *testing.T) {
		_, err := LoadFromFS(fstest.MapFS{
			"locales/fr.yaml": {Data: []byte("locale: fr\nmessages:\n  a: b\n")},
		})
		assert.Error(t, err)
	})

	t.Run("no files", func(t *testing.T) {
		_, err := LoadFromFS(fstest.MapFS{})
		assert.Error(t, err)
	})

	t.Run("fallback to base locale for missing key", func(t *testing.T) {
		c, err := LoadFromFS(fstest.MapFS{
			"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  greeting: hello\n  farewell: bye\n")},
			"locales/fr.yaml": {Data: []byte("locale: fr\nmessages:\n  greeting: bonjour\n")},
		})
		require.NoError(t, err)
		fr := c.Bundle("fr")
		assert.Equal(t, "bonjour", fr.Message("greeting"))
		assert.Equal(t, "bye", fr.Message("farewell"))
	})
}
