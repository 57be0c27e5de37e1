package table_test

import (
	"fmt"

	"github.com/lvillar/quotepdf/table"
)

// ExampleTable_Render lays out a charges table with a total line on a
// recording canvas and reports where the cursor ended.
func ExampleTable_Render() {
	rows := []table.Row{
		{"description": "Ocean Freight", "amount": 1200.0, "currency": "USD"},
		{"desc": "Terminal Handling", "total": 450.0, "curr": "USD"},
		{"description": "Documentation", "amount": 500.0, "currency": "USD"},
	}
	cols := []table.ColumnDef{
		{Field: "description", Label: "Description", Width: "60%"},
		{Field: "currency", Label: "Currency", Width: "15%", Align: "center"},
		{Field: "amount", Label: "Amount", Width: "25%", Align: "right"},
	}

	frame := table.Frame{
		X: 40, Width: 515, Bottom: 40,
		NewPage: func() float64 { return 802 },
	}
	res, err := table.New(&recorder{}, cols, rows).ShowSubtotals(true).Render(frame, 700)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("total:", res.Total.StringFixed(2))
	fmt.Println("cursor:", res.Cursor)
	fmt.Println("page breaks:", res.PageBreaks)
	// Output:
	// total: 2150.00
	// cursor: 590
	// page breaks: 0
}

func ExampleResolveWidths() {
	cols := []table.ColumnDef{{Width: "50%"}, {Width: "100"}, {}}
	fmt.Println(table.ResolveWidths(cols, 500))
	// Output: [250 100 166.66666666666666]
}
