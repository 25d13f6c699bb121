package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Drezúra":            "drezura",
		"  Show  Jumping!! ": "show-jumping",
		"Parkúr / Skoky":     "parkur-skoky",
		"---":                "",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeDisciplines(t *testing.T) {
	got := NormalizeDisciplines([]string{"Dressage", "dressage ", " ", "Show Jumping"})
	assert.Equal(t, []string{"dressage", "show-jumping"}, got)
	assert.Empty(t, NormalizeDisciplines(nil))
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.50", FormatCents(1250))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-0.05", FormatCents(-5))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "1.00", FormatCents(100))
	assert.Equal(t, "12.50 EUR", FormatMoney(1250, "EUR"))
}
