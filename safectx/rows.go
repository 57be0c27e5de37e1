package safectx

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/lvillar/quotepdf/table"
)

// Sources a dynamic table can draw rows from.
const (
	SourceItems   = "items"
	SourceCharges = "charges"
	SourceLegs    = "legs"
)

// Rows returns the rows of the named collection. ok is false when source does
// not name a collection.
func (sc SafeContext) Rows(source string) (rows []table.Row, ok bool) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceItems:
		rows = make([]table.Row, 0, len(sc.Items))
		for _, it := range sc.Items {
			rows = append(rows, table.Row{
				"type":      it.Type,
				"qty":       it.Qty,
				"commodity": it.Commodity,
				"details":   it.Details,
			})
		}
	case SourceCharges:
		rows = make([]table.Row, 0, len(sc.Charges))
		for _, ch := range sc.Charges {
			rows = append(rows, table.Row{
				"desc":       ch.Desc,
				"total":      ch.Total,
				"curr":       ch.Curr,
				"unit_price": ch.UnitPrice,
				"qty":        ch.Qty,
			})
		}
	case SourceLegs:
		rows = make([]table.Row, 0, len(sc.Legs))
		for _, l := range sc.Legs {
			rows = append(rows, table.Row{
				"seq":          l.Seq,
				"mode":         l.Mode,
				"origin":       l.Origin,
				"destination":  l.Destination,
				"carrier_name": l.CarrierName,
			})
		}
	default:
		return nil, false
	}
	return rows, true
}

// Map returns sc as nested maps keyed by the wire field names.
func (sc SafeContext) Map() map[string]any {
	out := map[string]any{}
	if err := mapstructure.Decode(sc, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Lookup resolves a dotted path such as "quote.number" or "customer.name".
func (sc SafeContext) Lookup(path string) (any, bool) {
	var cur any = sc.Map()
	for _, part := range strings.Split(strings.TrimSpace(path), ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
