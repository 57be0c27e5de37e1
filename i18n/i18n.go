// Package i18n resolves template labels and formats money and dates for a
// locale. Every operation degrades to a verbatim fallback instead of failing,
// so a missing translation or an unknown currency never blocks a document.
package i18n

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale is used when neither the caller nor the template names one.
const DefaultLocale = "en-US"

// Labels maps a label key to its translations keyed by locale.
type Labels map[string]map[string]string

// Engine looks up labels and formats values for a locale.
type Engine struct {
	labels        Labels
	defaultLocale string
}

// New creates an Engine. An empty defaultLocale falls back to DefaultLocale.
func New(labels Labels, defaultLocale string) *Engine {
	if strings.TrimSpace(defaultLocale) == "" {
		defaultLocale = DefaultLocale
	}
	if labels == nil {
		labels = Labels{}
	}
	return &Engine{labels: labels, defaultLocale: defaultLocale}
}

// DefaultLocale returns the locale used when a call passes an empty locale.
func (e *Engine) DefaultLocale() string {
	return e.defaultLocale
}

// T returns the label for key in locale. Lookup order is the exact locale,
// then the default locale, then key itself.
func (e *Engine) T(key, locale string) string {
	if locale == "" {
		locale = e.defaultLocale
	}
	translations, ok := e.labels[key]
	if !ok {
		return key
	}
	if v, ok := translations[locale]; ok && v != "" {
		return v
	}
	if v, ok := translations[e.defaultLocale]; ok && v != "" {
		return v
	}
	return key
}

// FormatCurrency formats amount in the ISO 4217 currency code for locale.
// Unknown codes and non-finite amounts produce "<amount with 2 decimals> <code>".
func (e *Engine) FormatCurrency(amount float64, code, locale string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fallbackCurrency(amount, code)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return fallbackCurrency(amount, code)
	}

	tag := e.tag(locale)
	p := message.NewPrinter(tag)
	scale, _ := currency.Standard.Rounding(unit)
	num := p.Sprint(number.Decimal(amount, number.Scale(scale)))
	sym := p.Sprint(currency.NarrowSymbol(unit))
	if sym == "" || sym == unit.String() {
		return unit.String() + " " + num
	}
	if symbolTrails(tag) {
		return num + " " + sym
	}
	if amount < 0 && strings.HasPrefix(num, "-") {
		return "-" + sym + strings.TrimPrefix(num, "-")
	}
	return sym + num
}

// trailingSymbol lists languages whose currency pattern puts the symbol
// after the amount, separated by a space.
var trailingSymbol = map[string]bool{
	"bg": true, "cs": true, "da": true, "de": true, "es": true, "et": true,
	"fi": true, "fr": true, "hr": true, "hu": true, "it": true, "lt": true,
	"lv": true, "nb": true, "no": true, "pl": true, "ro": true, "ru": true,
	"sk": true, "sl": true, "sv": true, "uk": true,
}

func symbolTrails(tag language.Tag) bool {
	base, _ := tag.Base()
	if base.String() == "pt" {
		region, _ := tag.Region()
		return region.String() == "PT"
	}
	return trailingSymbol[base.String()]
}

// FormatNumber renders amount with two decimals and the locale's grouping.
func (e *Engine) FormatNumber(amount float64, locale string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Sprintf("%.2f", amount)
	}
	p := message.NewPrinter(e.tag(locale))
	return p.Sprint(number.Decimal(amount, number.Scale(2)))
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the ISO-8601 shapes upstream records carry.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an ISO date as a long-form localized date such as
// "January 5, 2026". Unparseable input is returned unchanged.
func (e *Engine) FormatDate(iso, locale string) string {
	t, ok := ParseDate(iso)
	if !ok {
		return iso
	}
	tag := e.tag(locale)
	return monday.Format(t, longDateLayout(tag), mondayLocale(tag))
}

func (e *Engine) tag(locale string) language.Tag {
	if locale == "" {
		locale = e.defaultLocale
	}
	if tag, err := language.Parse(locale); err == nil {
		return tag
	}
	if tag, err := language.Parse(e.defaultLocale); err == nil {
		return tag
	}
	return language.AmericanEnglish
}

func longDateLayout(tag language.Tag) string {
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return "January 2, 2006"
	case "de", "da", "nb", "fi", "cs":
		return "2. January 2006"
	case "ja", "zh":
		return "2006年1月2日"
	case "es", "pt":
		return "2 de January de 2006"
	default:
		return "2 January 2006"
	}
}

func mondayLocale(tag language.Tag) monday.Locale {
	base, _ := tag.Base()
	region, _ := tag.Region()
	return monday.Locale(base.String() + "_" + region.String())
}

func fallbackCurrency(amount float64, code string) string {
	return fmt.Sprintf("%.2f %s", amount, code)
}
