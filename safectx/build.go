package safectx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by BuildStrict.
var (
	ErrInvalidInput = errors.New("safectx: bundle does not match the expected shape")
	ErrNoCharges    = errors.New("safectx: quotation has no priced line items")
)

// Option configures Build and BuildStrict.
type Option func(*buildConfig)

type buildConfig struct {
	now      func() time.Time
	logger   *zap.Logger
	branding Branding
}

// WithClock sets the clock used for meta.generated_at and the default quote date.
func WithClock(now func() time.Time) Option {
	return func(c *buildConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used to report degraded input.
func WithLogger(l *zap.Logger) Option {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultBranding overrides the branding applied when the bundle has none.
// Empty fields keep the built-in defaults.
func WithDefaultBranding(b Branding) Option {
	return func(c *buildConfig) {
		c.branding = mergeBranding(c.branding, b)
	}
}

func newConfig(opts []Option) *buildConfig {
	cfg := &buildConfig{
		now:    time.Now,
		logger: zap.NewNop(),
		branding: Branding{
			PrimaryColor:   DefaultPrimaryColor,
			SecondaryColor: DefaultSecondaryColor,
			AccentColor:    DefaultPrimaryColor,
			CompanyName:    DefaultCompanyName,
			FontFamily:     DefaultFontFamily,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Build maps raw into a SafeContext. When raw does not decode against the
// expected shape, fields are extracted one by one and anything unusable is
// replaced by its default. Build never fails.
func Build(raw map[string]any, locale string, opts ...Option) SafeContext {
	cfg := newConfig(opts)
	in, err := decodeStrict(raw)
	if err != nil {
		cfg.logger.Debug("strict decode failed, using best-effort extraction", zap.Error(err))
		in = extract(raw)
	}
	return fromInput(in, locale, cfg)
}

// BuildStrict maps raw like Build but fails when raw does not decode cleanly
// or when the resulting context has no charges.
func BuildStrict(raw map[string]any, locale string, opts ...Option) (SafeContext, error) {
	cfg := newConfig(opts)
	in, err := decodeStrict(raw)
	if err != nil {
		return SafeContext{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	sc := fromInput(in, locale, cfg)
	if err := Validate(sc); err != nil {
		return SafeContext{}, err
	}
	return sc, nil
}

// FromInput maps an already decoded Input into a SafeContext.
func FromInput(in Input, locale string, opts ...Option) SafeContext {
	return fromInput(in, locale, newConfig(opts))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that sc is deliverable: at least one charge, and every
// charge described and priced in a currency.
func Validate(sc SafeContext) error {
	if len(sc.Charges) == 0 {
		return ErrNoCharges
	}
	if err := validate.Struct(sc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" "+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func decodeStrict(raw map[string]any) (Input, error) {
	var in Input
	if raw == nil {
		return in, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return in, err
	}
	if err := dec.Decode(raw); err != nil {
		return Input{}, err
	}
	return in, nil
}

func fromInput(in Input, locale string, cfg *buildConfig) SafeContext {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	now := cfg.now()

	q := QuoteInput{}
	if in.Quote != nil {
		q = *in.Quote
	}
	sc := SafeContext{
		Meta: Meta{
			GeneratedAt: now.UTC().Format(time.RFC3339),
			Locale:      locale,
		},
		Branding: buildBranding(in.Branding, cfg.branding),
		Quote: Quote{
			Number:     first(q.QuoteNumber, q.Number, DefaultQuoteNumber),
			Date:       first(q.CreatedAt, q.Date, now.Format("2006-01-02")),
			Expiry:     first(q.ValidUntil, q.ExpiryDate),
			GrandTotal: value(q.TotalAmount, q.GrandTotal),
			Currency:   strings.ToUpper(first(q.Currency, DefaultCurrency)),
			Status:     q.Status,
			Notes:      q.Notes,
			Terms:      q.Terms,
		},
		Customer: buildCustomer(in.Customer),
		Legs:     make([]Leg, 0, len(in.Legs)),
		Items:    make([]Item, 0, len(in.Items)),
		Charges:  make([]Charge, 0, len(in.Charges)),
	}

	for i, l := range in.Legs {
		seq := i + 1
		if l.Seq != nil {
			seq = *l.Seq
		}
		sc.Legs = append(sc.Legs, Leg{
			Seq:         seq,
			Mode:        first(l.Mode, l.TransportMode, DefaultEndpoint),
			Origin:      first(l.Origin, l.OriginName, DefaultEndpoint),
			Destination: first(l.Destination, l.DestinationName, DefaultEndpoint),
			CarrierName: first(l.CarrierName, l.Carrier, DefaultCarrier),
		})
	}

	for _, it := range in.Items {
		qty := value(it.Quantity, it.Qty)
		if qty <= 0 {
			qty = 1
		}
		details := it.Details
		if details == "" {
			weight := pick(it.Weight, q.TotalWeight)
			volume := pick(it.Volume, q.TotalVolume)
			details = formatFloat(weight) + " kg / " + formatFloat(volume) + " cbm"
		}
		sc.Items = append(sc.Items, Item{
			Type:      first(it.Type, it.ContainerType, DefaultItemType),
			Qty:       qty,
			Commodity: first(it.Commodity, q.Commodity, DefaultCommodity),
			Details:   details,
		})
	}

	for _, ch := range in.Charges {
		if isCostSide(ch.Side) {
			cfg.logger.Warn("dropping cost-side charge", zap.String("desc", first(ch.Desc, ch.Description)))
			continue
		}
		amount := value(ch.Amount, ch.Total)
		qty := value(ch.Quantity, ch.Qty)
		unit := UnitPrice(amount, qty)
		if ch.UnitPrice != nil {
			unit = *ch.UnitPrice
		}
		if qty <= 0 {
			qty = 1
		}
		sc.Charges = append(sc.Charges, Charge{
			Desc:      first(ch.Desc, ch.Description, DefaultChargeDesc),
			Total:     amount,
			Curr:      strings.ToUpper(first(ch.Curr, ch.Currency, sc.Quote.Currency)),
			UnitPrice: unit,
			Qty:       qty,
		})
	}
	return sc
}

// UnitPrice derives amount / max(qty, 1), rounded to four places.
func UnitPrice(amount, qty float64) float64 {
	if qty < 1 {
		qty = 1
	}
	f, _ := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(qty)).Round(4).Float64()
	return f
}

func buildBranding(b *BrandingInput, def Branding) Branding {
	if b == nil {
		return def
	}
	return mergeBranding(def, Branding{
		LogoURL:        b.LogoURL,
		LogoBase64:     b.LogoBase64,
		PrimaryColor:   b.PrimaryColor,
		SecondaryColor: b.SecondaryColor,
		AccentColor:    b.AccentColor,
		CompanyName:    b.CompanyName,
		FontFamily:     b.FontFamily,
	})
}

func mergeBranding(base, over Branding) Branding {
	base.LogoURL = first(over.LogoURL, base.LogoURL)
	base.LogoBase64 = first(over.LogoBase64, base.LogoBase64)
	base.PrimaryColor = first(over.PrimaryColor, base.PrimaryColor)
	base.SecondaryColor = first(over.SecondaryColor, base.SecondaryColor)
	base.AccentColor = first(over.AccentColor, base.AccentColor, base.PrimaryColor)
	base.CompanyName = first(over.CompanyName, base.CompanyName)
	base.FontFamily = first(over.FontFamily, base.FontFamily)
	return base
}

func buildCustomer(c *CustomerInput) Customer {
	if c == nil {
		return Customer{Name: DefaultCustomerName}
	}
	addr := c.FullAddress
	if addr == "" {
		var parts []string
		for _, p := range []string{c.BillingStreet, c.BillingCity, c.BillingState, c.BillingPostalCode, c.BillingCountry} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		addr = strings.Join(parts, ", ")
	}
	return Customer{
		Name:        first(c.Name, c.CompanyName, DefaultCustomerName),
		Contact:     first(c.ContactName, c.Contact, c.Email),
		FullAddress: addr,
	}
}

func isCostSide(side string) bool {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "buy", "cost":
		return true
	}
	return false
}

// first returns the first non-blank string.
func first(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// value returns the first non-nil number, or 0.
func value(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return 0
}

// pick returns the first positive number, or 0.
func pick(vals ...*float64) float64 {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return 0
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
