package i18n

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLabels() Labels {
	return Labels{
		"quote_number": {"en-US": "Quote Number", "de-DE": "Angebotsnummer"},
		"valid_until":  {"en-US": "Valid Until"},
		"empty_en":     {"en-US": ""},
	}
}

func TestT(t *testing.T) {
	e := New(testLabels(), "en-US")

	t.Run("exact locale", func(t *testing.T) {
		assert.Equal(t, "Angebotsnummer", e.T("quote_number", "de-DE"))
	})

	t.Run("falls back to default locale", func(t *testing.T) {
		assert.Equal(t, "Valid Until", e.T("valid_until", "de-DE"))
	})

	t.Run("falls back to key", func(t *testing.T) {
		assert.Equal(t, "missing.key", e.T("missing.key", "de-DE"))
		assert.Equal(t, "empty_en", e.T("empty_en", "en-US"))
	})

	t.Run("empty locale uses default", func(t *testing.T) {
		assert.Equal(t, "Quote Number", e.T("quote_number", ""))
	})

	t.Run("empty key", func(t *testing.T) {
		assert.Equal(t, "", e.T("", "en-US"))
	})
}

func TestNewDefaults(t *testing.T) {
	e := New(nil, "")
	assert.Equal(t, DefaultLocale, e.DefaultLocale())
	assert.Equal(t, "anything", e.T("anything", ""))
}

func TestFormatCurrency(t *testing.T) {
	e := New(nil, "en-US")

	t.Run("known currency uses locale grouping", func(t *testing.T) {
		got := e.FormatCurrency(2150, "USD", "en-US")
		assert.Contains(t, got, "2,150.00")
		assert.True(t, strings.HasPrefix(got, "$"), got)
	})

	t.Run("german grouping and trailing symbol", func(t *testing.T) {
		assert.Equal(t, "2.150,00 €", e.FormatCurrency(2150, "EUR", "de-DE"))
		assert.Equal(t, "-2.150,00 €", e.FormatCurrency(-2150, "EUR", "de-DE"))
	})

	t.Run("symbol placement follows the locale", func(t *testing.T) {
		assert.Equal(t, "€2,150.00", e.FormatCurrency(2150, "EUR", "en-US"))
		assert.Equal(t, "12.150,00 €", e.FormatCurrency(12150, "EUR", "es-ES"))
		assert.Equal(t, "-$150.00", e.FormatCurrency(-150, "USD", "en-US"))
	})

	t.Run("malformed codes fall back", func(t *testing.T) {
		for _, code := range []string{"not-a-currency", "", "ZZZ", "us", "💵"} {
			assert.NotPanics(t, func() {
				got := e.FormatCurrency(150, code, "en-US")
				assert.Equal(t, "150.00 "+code, got)
			})
		}
	})

	t.Run("non finite amounts fall back", func(t *testing.T) {
		assert.NotPanics(t, func() {
			e.FormatCurrency(math.NaN(), "USD", "en-US")
			e.FormatCurrency(math.Inf(1), "USD", "en-US")
		})
	})

	t.Run("bad locale uses default", func(t *testing.T) {
		got := e.FormatCurrency(1000, "USD", "!!")
		assert.Contains(t, got, "1,000.00")
	})
}

func TestFormatNumber(t *testing.T) {
	e := New(nil, "en-US")
	assert.Equal(t, "2,150.00", e.FormatNumber(2150, "en-US"))
	assert.Equal(t, "2.150,00", e.FormatNumber(2150, "de-DE"))
}

func TestFormatDate(t *testing.T) {
	e := New(nil, "en-US")

	t.Run("long form english", func(t *testing.T) {
		assert.Equal(t, "January 5, 2026", e.FormatDate("2026-01-05", "en-US"))
		assert.Equal(t, "January 5, 2026", e.FormatDate("2026-01-05T10:30:00Z", "en-US"))
	})

	t.Run("localized month names", func(t *testing.T) {
		assert.Equal(t, "5. Januar 2026", e.FormatDate("2026-01-05", "de-DE"))
	})

	t.Run("unparseable input is returned unchanged", func(t *testing.T) {
		for _, s := range []string{"", "next tuesday", "2026-13-45"} {
			assert.Equal(t, s, e.FormatDate(s, "en-US"))
		}
	})
}

func TestParseDate(t *testing.T) {
	_, ok := ParseDate("2026-02-01T00:00:00.000+01:00")
	assert.True(t, ok)
	_, ok = ParseDate("01/02/2026")
	assert.False(t, ok)
}
