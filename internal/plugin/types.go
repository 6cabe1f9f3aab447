package plugin

import "fmt"

// Type identifies a distributable variant of Extra Icons. Values are fixed at
// build time; compare them by value.
type Type struct {
	Name            string
	PluginID        string
	ProductCode     string
	RequiresLicense bool
}

var (
	// Subscription is the paid marketplace edition.
	Subscription = Type{
		Name:            "SUBSCRIPTION",
		PluginID:        "lermitage.intellij.extra.icons",
		ProductCode:     "PEXTRAICONS",
		RequiresLicense: true,
	}

	// Lifetime is the one-time purchase edition.
	Lifetime = Type{
		Name:            "LIFETIME",
		PluginID:        "lermitage.intellij.extra.icons.lifetime",
		ProductCode:     "PEXTRAICONSL",
		RequiresLicense: true,
	}

	// Free is the community edition.
	Free = Type{
		Name:     "FREE",
		PluginID: "lermitage.extra.icons.free",
	}

	// NotFound is returned when no installed plugin matches a known type.
	NotFound = Type{
		Name: "NOT_FOUND",
	}
)

// FindableTypes lists, in priority order, the types identity resolution may
// return besides NotFound.
var FindableTypes = []Type{Subscription, Lifetime, Free}

// IsNotFound reports whether t is the NotFound sentinel.
func (t Type) IsNotFound() bool {
	return t == NotFound
}

func (t Type) String() string {
	if t.PluginID == "" {
		return t.Name
	}
	return fmt.Sprintf("%s(%s)", t.Name, t.PluginID)
}

// findByPluginID returns the first findable type with the given plugin id.
func findByPluginID(pluginID string) (Type, bool) {
	for _, t := range FindableTypes {
		if t.PluginID == pluginID {
			return t, true
		}
	}
	return NotFound, false
}
