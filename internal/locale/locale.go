// Package locale resolves multilingual reference-data fields with a fixed
// fallback order. French is the canonical locale: every field is guaranteed
// to have a French value, and any missing or empty localized value falls
// back to it. The same rule applies uniformly to every field; options lists
// are substituted whole, never blended between locales.
package locale

// Default is the canonical locale every record is guaranteed to carry.
const Default = "fr"

// Supported lists the locales reference data may carry.
var Supported = []string{"fr", "en", "es"}

// Chain returns the lookup order for a requested locale: the requested
// locale first (when supported and not already the default), then French.
func Chain(requested string) []string {
	for _, loc := range Supported {
		if loc == requested && loc != Default {
			return []string{requested, Default}
		}
	}
	return []string{Default}
}

// resolve walks the fallback chain and returns the first non-empty value.
func resolve[T any](requested string, values map[string]T, empty func(T) bool) T {
	for _, loc := range Chain(requested) {
		if v, ok := values[loc]; ok && !empty(v) {
			return v
		}
	}
	var zero T
	return zero
}

// Strings is a per-locale scalar field, keyed by locale code.
type Strings map[string]string

// Resolve returns the value for the requested locale, falling back to French
// when the localized value is absent or empty.
func (s Strings) Resolve(requested string) string {
	return resolve(requested, s, func(v string) bool { return v == "" })
}

// Lists is a per-locale options list, keyed by locale code.
type Lists map[string][]string

// Resolve returns the options list for the requested locale. A missing or
// empty localized list is replaced by the entire French list.
func (l Lists) Resolve(requested string) []string {
	return resolve(requested, l, func(v []string) bool { return len(v) == 0 })
}
