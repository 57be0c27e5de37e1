package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/lvillar/quotepdf"
)

var (
	// ErrSellSideUnresolved means the sell charge side could not be found.
	// Rendering stops so cost lines never reach a customer document.
	ErrSellSideUnresolved = quotepdf.ErrNoSellSide

	ErrQuoteNotFound   = errors.New("delivery: quote not found")
	ErrVersionNotFound = errors.New("delivery: quotation version not found")
)

// QuoteSource loads the raw bundle for a quote and optional version.
type QuoteSource interface {
	Load(ctx context.Context, quoteID, versionID string) (map[string]any, error)
}

// SQLQuoteSource reads quotes through gorm. Only sell-side charges are
// loaded.
type SQLQuoteSource struct {
	db *gorm.DB
}

var _ QuoteSource = (*SQLQuoteSource)(nil)

// NewSQLQuoteSource creates a source on db.
func NewSQLQuoteSource(db *gorm.DB) *SQLQuoteSource {
	return &SQLQuoteSource{db: db}
}

func (s *SQLQuoteSource) Load(ctx context.Context, quoteID, versionID string) (map[string]any, error) {
	db := s.db.WithContext(ctx)

	var q Quote
	err := db.Preload("Account").Where("id = ?", quoteID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrQuoteNotFound, quoteID)
	}
	if err != nil {
		return nil, fmt.Errorf("delivery: loading quote %q: %w", quoteID, err)
	}

	if versionID != "" {
		var v QuotationVersion
		err := db.Where("id = ? AND quote_id = ?", versionID, quoteID).First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrVersionNotFound, versionID)
		}
		if err != nil {
			return nil, fmt.Errorf("delivery: loading version %q: %w", versionID, err)
		}
	}

	sell, err := s.sellSide(ctx)
	if err != nil {
		return nil, err
	}

	var charges []QuoteCharge
	cq := db.Where("quote_id = ? AND charge_side_id = ?", quoteID, sell.ID)
	if versionID != "" {
		cq = cq.Where("quotation_version_id = ?", versionID)
	}
	if err := cq.Order("sort_order").Order("id").Find(&charges).Error; err != nil {
		return nil, fmt.Errorf("delivery: loading charges: %w", err)
	}

	var legs []QuoteLeg
	lq := db.Where("quote_id = ?", quoteID)
	if versionID != "" {
		lq = lq.Where("quotation_version_id IS NULL OR quotation_version_id = ?", versionID)
	}
	if err := lq.Order("seq").Find(&legs).Error; err != nil {
		return nil, fmt.Errorf("delivery: loading legs: %w", err)
	}

	var items []QuoteItem
	if err := db.Where("quote_id = ?", quoteID).Order("sort_order").Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("delivery: loading items: %w", err)
	}

	return bundle(q, legs, items, charges), nil
}

func (s *SQLQuoteSource) sellSide(ctx context.Context) (ChargeSide, error) {
	var side ChargeSide
	err := s.db.WithContext(ctx).Where("LOWER(code) = ?", SideSell).First(&side).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return side, ErrSellSideUnresolved
	}
	if err != nil {
		return side, fmt.Errorf("%w: %w", ErrSellSideUnresolved, err)
	}
	return side, nil
}

// bundle shapes the loaded rows the way safectx expects upstream data.
func bundle(q Quote, legs []QuoteLeg, items []QuoteItem, charges []QuoteCharge) map[string]any {
	quote := map[string]any{
		"id":           q.ID,
		"quote_number": q.QuoteNumber,
		"currency":     q.Currency,
		"status":       q.Status,
		"notes":        q.Notes,
		"terms":        q.Terms,
		"commodity":    q.Commodity,
	}
	if !q.CreatedAt.IsZero() {
		quote["created_at"] = q.CreatedAt.UTC().Format("2006-01-02")
	}
	if q.ValidUntil != nil {
		quote["valid_until"] = q.ValidUntil.UTC().Format("2006-01-02")
	}
	setFloat(quote, "total_amount", q.TotalAmount)
	setFloat(quote, "total_weight", q.TotalWeight)
	setFloat(quote, "total_volume", q.TotalVolume)

	out := map[string]any{"quote": quote}

	if a := q.Account; a != nil {
		out["customer"] = map[string]any{
			"name":                a.Name,
			"contact_name":        a.ContactName,
			"billing_street":      a.BillingStreet,
			"billing_city":        a.BillingCity,
			"billing_state":       a.BillingState,
			"billing_postal_code": a.BillingPostalCode,
			"billing_country":     a.BillingCountry,
		}
	}

	rows := make([]map[string]any, 0, len(legs))
	for _, l := range legs {
		rows = append(rows, map[string]any{
			"seq":          l.Seq,
			"mode":         l.Mode,
			"origin":       l.Origin,
			"destination":  l.Destination,
			"carrier_name": l.CarrierName,
		})
	}
	out["legs"] = rows

	rows = make([]map[string]any, 0, len(items))
	for _, it := range items {
		rows = append(rows, map[string]any{
			"container_type": it.ContainerType,
			"quantity":       it.Quantity,
			"commodity":      it.Commodity,
			"details":        it.Details,
		})
	}
	out["items"] = rows

	rows = make([]map[string]any, 0, len(charges))
	for _, c := range charges {
		row := map[string]any{
			"description": c.Description,
			"amount":      c.Amount,
			"currency":    strings.ToUpper(c.Currency),
			"side":        SideSell,
		}
		setFloat(row, "quantity", c.Quantity)
		setFloat(row, "unit_price", c.UnitPrice)
		rows = append(rows, row)
	}
	out["charges"] = rows
	return out
}

func setFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
