package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrings_Resolve(t *testing.T) {
	field := Strings{"fr": "Énergie", "en": "Energy"}

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"present locale returns localized value", "en", "Energy"},
		{"default locale returns french", "fr", "Énergie"},
		{"supported but absent locale falls back to french", "es", "Énergie"},
		{"unsupported locale falls back to french", "de", "Énergie"},
		{"empty locale falls back to french", "", "Énergie"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, field.Resolve(tc.requested))
		})
	}
}

func TestStrings_Resolve_EmptyValueFallsBack(t *testing.T) {
	field := Strings{"fr": "Sommeil", "en": ""}
	assert.Equal(t, "Sommeil", field.Resolve("en"))
}

func TestLists_Resolve_WholeListSubstitution(t *testing.T) {
	options := Lists{
		"fr": {"Jamais", "Parfois", "Souvent"},
		"en": {"Never", "Sometimes", "Often"},
	}

	assert.Equal(t, []string{"Never", "Sometimes", "Often"}, options.Resolve("en"))
	// No spanish list: the entire french list is substituted, never a blend.
	assert.Equal(t, []string{"Jamais", "Parfois", "Souvent"}, options.Resolve("es"))
}

func TestLists_Resolve_EmptyListFallsBack(t *testing.T) {
	options := Lists{
		"fr": {"Oui", "Non"},
		"es": {},
	}
	assert.Equal(t, []string{"Oui", "Non"}, options.Resolve("es"))
}

func TestChain(t *testing.T) {
	assert.Equal(t, []string{"en", "fr"}, Chain("en"))
	assert.Equal(t, []string{"es", "fr"}, Chain("es"))
	assert.Equal(t, []string{"fr"}, Chain("fr"))
	assert.Equal(t, []string{"fr"}, Chain("pt"))
}
