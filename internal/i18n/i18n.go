// Package i18n holds the user-facing messages of Extra Icons.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v2"
)

// BaseLocale is the fallback for missing locales and keys.
var BaseLocale = language.English

type localeFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog is the set of messages for every supported locale.
type Catalog struct {
	builder *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
	keys    map[language.Tag]map[string]struct{}
}

// LoadFromFS reads locales/*.yaml from fsys.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale files found")
	}
	sort.Strings(paths)

	c := &Catalog{
		builder: catalog.NewBuilder(catalog.Fallback(BaseLocale)),
		keys:    map[language.Tag]map[string]struct{}{},
	}

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", path, err)
		}
		var file localeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", path, err)
		}
		tag, err := language.Parse(strings.TrimSpace(file.Locale))
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", path, err)
		}
		keys := make(map[string]struct{}, len(file.Messages))
		for key, msg := range file.Messages {
			if err := c.builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("locale %s: key %q: %w", path, key, err)
			}
			keys[key] = struct{}{}
		}
		c.keys[tag] = keys
		c.tags = append(c.tags, tag)
	}

	if _, ok := c.keys[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	// the base locale goes first so it wins ties in matching
	sort.SliceStable(c.tags, func(i, j int) bool { return c.tags[i] == BaseLocale })
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Locales returns the supported locales.
func (c *Catalog) Locales() []language.Tag {
	return append([]language.Tag(nil), c.tags...)
}

// Has reports whether key is defined for the exact locale tag.
func (c *Catalog) Has(tag language.Tag, key string) bool {
	_, ok := c.keys[tag][key]
	return ok
}

// Bundle formats messages for one locale.
type Bundle struct {
	catalog *Catalog
	tag     language.Tag
	printer *message.Printer
}

// Bundle returns a bundle for the closest supported match of locale.
func (c *Catalog) Bundle(locale string) *Bundle {
	tag := BaseLocale
	if requested, err := language.Parse(locale); err == nil {
		_, idx, conf := c.matcher.Match(requested)
		if conf != language.No {
			tag = c.tags[idx]
		}
	}
	return &Bundle{
		catalog: c,
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(c.builder)),
	}
}

// Locale returns the resolved locale of the bundle.
func (b *Bundle) Locale() language.Tag {
	return b.tag
}

// Message formats the message stored under key. Keys missing from the locale
// use the base locale; unknown keys come back as the key itself.
func (b *Bundle) Message(key string, args ...any) string {
	if b.tag != BaseLocale && !b.catalog.Has(b.tag, key) {
		return message.NewPrinter(BaseLocale, message.Catalog(b.catalog.builder)).Sprintf(key, args...)
	}
	return b.printer.Sprintf(key, args...)
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := LoadFromFS(embeddedLocales)
		if err != nil {
			panic(fmt.Sprintf("i18n: embedded locales are invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Default returns the base locale bundle of the embedded catalog.
func Default() *Bundle {
	return DefaultCatalog().Bundle(BaseLocale.String())
}

// ForLocale returns a bundle of the embedded catalog for locale.
func ForLocale(locale string) *Bundle {
	return DefaultCatalog().Bundle(locale)
}
