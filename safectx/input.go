package safectx

import (
	"strings"

	"github.com/spf13/cast"
)

// Input is the expected shape of an upstream quote bundle. Several upstream
// spellings are accepted for the same logical field.
type Input struct {
	Quote    *QuoteInput    `mapstructure:"quote"`
	Customer *CustomerInput `mapstructure:"customer"`
	Branding *BrandingInput `mapstructure:"branding"`
	Legs     []LegInput     `mapstructure:"legs"`
	Items    []ItemInput    `mapstructure:"items"`
	Charges  []ChargeInput  `mapstructure:"charges"`
}

type QuoteInput struct {
	ID          string   `mapstructure:"id"`
	QuoteNumber string   `mapstructure:"quote_number"`
	Number      string   `mapstructure:"number"`
	CreatedAt   string   `mapstructure:"created_at"`
	Date        string   `mapstructure:"date"`
	ValidUntil  string   `mapstructure:"valid_until"`
	ExpiryDate  string   `mapstructure:"expiry_date"`
	TotalAmount *float64 `mapstructure:"total_amount"`
	GrandTotal  *float64 `mapstructure:"grand_total"`
	Currency    string   `mapstructure:"currency"`
	Status      string   `mapstructure:"status"`
	Notes       string   `mapstructure:"notes"`
	Terms       string   `mapstructure:"terms"`
	TotalWeight *float64 `mapstructure:"total_weight"`
	TotalVolume *float64 `mapstructure:"total_volume"`
	Commodity   string   `mapstructure:"commodity"`
}

type CustomerInput struct {
	Name              string `mapstructure:"name"`
	CompanyName       string `mapstructure:"company_name"`
	Contact           string `mapstructure:"contact"`
	ContactName       string `mapstructure:"contact_name"`
	Email             string `mapstructure:"email"`
	FullAddress       string `mapstructure:"full_address"`
	BillingStreet     string `mapstructure:"billing_street"`
	BillingCity       string `mapstructure:"billing_city"`
	BillingState      string `mapstructure:"billing_state"`
	BillingPostalCode string `mapstructure:"billing_postal_code"`
	BillingCountry    string `mapstructure:"billing_country"`
}

type BrandingInput struct {
	LogoURL        string `mapstructure:"logo_url"`
	LogoBase64     string `mapstructure:"logo_base64"`
	PrimaryColor   string `mapstructure:"primary_color"`
	SecondaryColor string `mapstructure:"secondary_color"`
	AccentColor    string `mapstructure:"accent_color"`
	CompanyName    string `mapstructure:"company_name"`
	FontFamily     string `mapstructure:"font_family"`
}

type LegInput struct {
	Seq             *int   `mapstructure:"seq"`
	Mode            string `mapstructure:"mode"`
	TransportMode   string `mapstructure:"transport_mode"`
	Origin          string `mapstructure:"origin"`
	OriginName      string `mapstructure:"origin_name"`
	Destination     string `mapstructure:"destination"`
	DestinationName string `mapstructure:"destination_name"`
	Carrier         string `mapstructure:"carrier"`
	CarrierName     string `mapstructure:"carrier_name"`
}

type ItemInput struct {
	Type          string   `mapstructure:"type"`
	ContainerType string   `mapstructure:"container_type"`
	Qty           *float64 `mapstructure:"qty"`
	Quantity      *float64 `mapstructure:"quantity"`
	Commodity     string   `mapstructure:"commodity"`
	Details       string   `mapstructure:"details"`
	Weight        *float64 `mapstructure:"weight"`
	Volume        *float64 `mapstructure:"volume"`
}

type ChargeInput struct {
	Desc        string   `mapstructure:"desc"`
	Description string   `mapstructure:"description"`
	Amount      *float64 `mapstructure:"amount"`
	Total       *float64 `mapstructure:"total"`
	Curr        string   `mapstructure:"curr"`
	Currency    string   `mapstructure:"currency"`
	UnitPrice   *float64 `mapstructure:"unit_price"`
	Qty         *float64 `mapstructure:"qty"`
	Quantity    *float64 `mapstructure:"quantity"`
	Side        string   `mapstructure:"side"`
}

// extract reads an Input out of raw field by field, coercing what it can and
// skipping what it cannot.
func extract(raw map[string]any) Input {
	var in Input
	if q := object(raw, "quote"); q != nil {
		in.Quote = &QuoteInput{
			ID:          str(q, "id"),
			QuoteNumber: str(q, "quote_number"),
			Number:      str(q, "number"),
			CreatedAt:   str(q, "created_at"),
			Date:        str(q, "date"),
			ValidUntil:  str(q, "valid_until"),
			ExpiryDate:  str(q, "expiry_date"),
			TotalAmount: num(q, "total_amount"),
			GrandTotal:  num(q, "grand_total"),
			Currency:    str(q, "currency"),
			Status:      str(q, "status"),
			Notes:       str(q, "notes"),
			Terms:       str(q, "terms"),
			TotalWeight: num(q, "total_weight"),
			TotalVolume: num(q, "total_volume"),
			Commodity:   str(q, "commodity"),
		}
	}
	if c := object(raw, "customer"); c != nil {
		in.Customer = &CustomerInput{
			Name:              str(c, "name"),
			CompanyName:       str(c, "company_name"),
			Contact:           str(c, "contact"),
			ContactName:       str(c, "contact_name"),
			Email:             str(c, "email"),
			FullAddress:       str(c, "full_address"),
			BillingStreet:     str(c, "billing_street"),
			BillingCity:       str(c, "billing_city"),
			BillingState:      str(c, "billing_state"),
			BillingPostalCode: str(c, "billing_postal_code"),
			BillingCountry:    str(c, "billing_country"),
		}
	}
	if b := object(raw, "branding"); b != nil {
		in.Branding = &BrandingInput{
			LogoURL:        str(b, "logo_url"),
			LogoBase64:     str(b, "logo_base64"),
			PrimaryColor:   str(b, "primary_color"),
			SecondaryColor: str(b, "secondary_color"),
			AccentColor:    str(b, "accent_color"),
			CompanyName:    str(b, "company_name"),
			FontFamily:     str(b, "font_family"),
		}
	}
	for _, l := range objects(raw, "legs") {
		leg := LegInput{
			Mode:            str(l, "mode"),
			TransportMode:   str(l, "transport_mode"),
			Origin:          str(l, "origin"),
			OriginName:      str(l, "origin_name"),
			Destination:     str(l, "destination"),
			DestinationName: str(l, "destination_name"),
			Carrier:         str(l, "carrier"),
			CarrierName:     str(l, "carrier_name"),
		}
		if v, ok := l["seq"]; ok {
			if n, err := cast.ToIntE(v); err == nil {
				leg.Seq = &n
			}
		}
		in.Legs = append(in.Legs, leg)
	}
	for _, it := range objects(raw, "items") {
		in.Items = append(in.Items, ItemInput{
			Type:          str(it, "type"),
			ContainerType: str(it, "container_type"),
			Qty:           num(it, "qty"),
			Quantity:      num(it, "quantity"),
			Commodity:     str(it, "commodity"),
			Details:       str(it, "details"),
			Weight:        num(it, "weight"),
			Volume:        num(it, "volume"),
		})
	}
	for _, ch := range objects(raw, "charges") {
		in.Charges = append(in.Charges, ChargeInput{
			Desc:        str(ch, "desc"),
			Description: str(ch, "description"),
			Amount:      num(ch, "amount"),
			Total:       num(ch, "total"),
			Curr:        str(ch, "curr"),
			Currency:    str(ch, "currency"),
			UnitPrice:   num(ch, "unit_price"),
			Qty:         num(ch, "qty"),
			Quantity:    num(ch, "quantity"),
			Side:        str(ch, "side"),
		})
	}
	return in
}

// str returns m[key] as a trimmed string. Location-like objects resolve to
// their location_name or name.
func str(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if nested, err := cast.ToStringMapE(v); err == nil && len(nested) > 0 {
		if s := str(nested, "location_name"); s != "" {
			return s
		}
		return str(nested, "name")
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func num(m map[string]any, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

func object(m map[string]any, key string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	if _, isString := v.(string); isString {
		return nil
	}
	out, err := cast.ToStringMapE(v)
	if err != nil {
		return nil
	}
	return out
}

func objects(m map[string]any, key string) []map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	var out []map[string]any
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		for _, e := range list {
			if obj, err := cast.ToStringMapE(e); err == nil && e != nil {
				out = append(out, obj)
			}
		}
	}
	return out
}
