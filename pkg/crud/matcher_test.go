package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldMatcher(t *testing.T) {
	type bus struct{ Patente, Modelo, Marca string }
	match := FieldMatcher(
		func(b bus) string { return b.Patente },
		func(b bus) string { return b.Modelo },
		func(b bus) string { return b.Marca },
	)
	b := bus{Patente: "ABCD-12", Modelo: "Citaro", Marca: "Mercedes-Benz"}

	t.Run("Should match any designated field", func(t *testing.T) {
		assert.True(t, match(b, "abcd"))
		assert.True(t, match(b, "TARO"))
		assert.True(t, match(b, "benz"))
		assert.False(t, match(b, "volvo"))
	})

	t.Run("Should ignore diacritics", func(t *testing.T) {
		assert.True(t, FieldMatcher(func(s string) string { return s })("Peña", "pena"))
		assert.True(t, FieldMatcher(func(s string) string { return s })("Jose", "JOSÉ"))
	})
}

func TestFilter(t *testing.T) {
	items := []string{"Ana", "Bob", "ana maría"}
	identity := FieldMatcher(func(s string) string { return s })

	t.Run("Should preserve original order", func(t *testing.T) {
		assert.Equal(t, []string{"Ana", "ana maría"}, Filter(items, "ana", identity))
	})

	t.Run("Should return a copy for blank queries", func(t *testing.T) {
		out := Filter(items, " ", identity)
		out[0] = "changed"
		assert.Equal(t, "Ana", items[0])
	})

	t.Run("Should use printed form without a matcher", func(t *testing.T) {
		assert.Equal(t, []string{"Bob"}, Filter(items, "bo", nil))
	})
}

func TestFold(t *testing.T) {
	t.Run("Should fold case and strip accents", func(t *testing.T) {
		assert.Equal(t, "manana", Fold("MAÑANA"))
		assert.Equal(t, "strasse", Fold("STRASSE"))
	})
}
