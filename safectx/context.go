// Package safectx turns a loosely typed quote bundle into a SafeContext: a
// fully defaulted, render-only view of the business data.
//
// Build is permissive and never fails for structurally plausible input.
// BuildStrict applies the same mapping but rejects bundles that do not decode
// cleanly or that resolve to no priced line item.
package safectx

// Default values applied when upstream data is missing.
const (
	DefaultQuoteNumber    = "DRAFT"
	DefaultCustomerName   = "Valued Customer"
	DefaultEndpoint       = "N/A"
	DefaultCarrier        = "TBD"
	DefaultCommodity      = "General Cargo"
	DefaultItemType       = "General"
	DefaultChargeDesc     = "Charge"
	DefaultCurrency       = "USD"
	DefaultLocale         = "en-US"
	DefaultCompanyName    = "MIAMI GLOBAL LINES"
	DefaultPrimaryColor   = "#0087b5"
	DefaultSecondaryColor = "#dceef2"
	DefaultFontFamily     = "Helvetica"
)

// SafeContext is the sanitized view of a quote consumed by the renderer.
// Every field carries a deterministic default.
type SafeContext struct {
	Meta     Meta     `json:"meta" mapstructure:"meta"`
	Branding Branding `json:"branding" mapstructure:"branding"`
	Quote    Quote    `json:"quote" mapstructure:"quote"`
	Customer Customer `json:"customer" mapstructure:"customer"`
	Legs     []Leg    `json:"legs" mapstructure:"legs"`
	Items    []Item   `json:"items" mapstructure:"items"`
	Charges  []Charge `json:"charges" mapstructure:"charges" validate:"min=1,dive"`
}

// Meta describes the render invocation.
type Meta struct {
	GeneratedAt string `json:"generated_at" mapstructure:"generated_at"`
	Locale      string `json:"locale" mapstructure:"locale"`
}

// Branding holds the visual identity drawn in headers and table bands.
type Branding struct {
	LogoURL        string `json:"logo_url,omitempty" mapstructure:"logo_url"`
	LogoBase64     string `json:"logo_base64,omitempty" mapstructure:"logo_base64"`
	PrimaryColor   string `json:"primary_color" mapstructure:"primary_color"`
	SecondaryColor string `json:"secondary_color" mapstructure:"secondary_color"`
	AccentColor    string `json:"accent_color" mapstructure:"accent_color"`
	CompanyName    string `json:"company_name" mapstructure:"company_name"`
	FontFamily     string `json:"font_family" mapstructure:"font_family"`
}

// Quote is the quotation header data.
type Quote struct {
	Number     string  `json:"number" mapstructure:"number" validate:"required"`
	Date       string  `json:"date" mapstructure:"date"`
	Expiry     string  `json:"expiry,omitempty" mapstructure:"expiry"`
	GrandTotal float64 `json:"grand_total" mapstructure:"grand_total"`
	Currency   string  `json:"currency" mapstructure:"currency"`
	Status     string  `json:"status,omitempty" mapstructure:"status"`
	Notes      string  `json:"notes,omitempty" mapstructure:"notes"`
	Terms      string  `json:"terms,omitempty" mapstructure:"terms"`
}

// Customer identifies the quote recipient.
type Customer struct {
	Name        string `json:"name" mapstructure:"name"`
	Contact     string `json:"contact" mapstructure:"contact"`
	FullAddress string `json:"full_address" mapstructure:"full_address"`
}

// Leg is one transport segment of the routing.
type Leg struct {
	Seq         int    `json:"seq" mapstructure:"seq"`
	Mode        string `json:"mode" mapstructure:"mode"`
	Origin      string `json:"origin" mapstructure:"origin"`
	Destination string `json:"destination" mapstructure:"destination"`
	CarrierName string `json:"carrier_name" mapstructure:"carrier_name"`
}

// Item is one cargo line.
type Item struct {
	Type      string  `json:"type" mapstructure:"type"`
	Qty       float64 `json:"qty" mapstructure:"qty"`
	Commodity string  `json:"commodity" mapstructure:"commodity"`
	Details   string  `json:"details" mapstructure:"details"`
}

// Charge is one customer-facing priced line.
type Charge struct {
	Desc      string  `json:"desc" mapstructure:"desc" validate:"required"`
	Total     float64 `json:"total" mapstructure:"total"`
	Curr      string  `json:"curr" mapstructure:"curr" validate:"required"`
	UnitPrice float64 `json:"unit_price" mapstructure:"unit_price"`
	Qty       float64 `json:"qty" mapstructure:"qty"`
}
