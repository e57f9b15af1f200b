// Package report flattens the two-level group/bin model into the fixed
// 22-column table the export sink renders. It owns the column order and the
// per-column formatting intent, but executes none of it.
package report

import (
	"fmt"

	"github.com/warehousekit/bindivider/internal/derive"
	"github.com/warehousekit/bindivider/internal/storage"
)

// Format states how the export sink should format a column's data cells.
type Format int

const (
	// FormatGeneral applies no numeric format. Used for text columns and for
	// the lip column, whose cells mix numbers with the "-" placeholder.
	FormatGeneral Format = iota
	// FormatInteger formats cells as whole numbers.
	FormatInteger
	// FormatDecimal formats cells with three fixed decimal places.
	FormatDecimal
)

// Column describes one column of the export table. Merged columns span a
// group's contiguous row block as a single centered cell.
type Column struct {
	Title  string
	Format Format
	Merged bool
}

// MergedColumns is the width of the group-identity block: the leading columns
// that are vertically merged across each group's rows.
const MergedColumns = 9

// Columns returns the fixed export column set in left-to-right order. The
// first MergedColumns entries are the group-identity block; the aisle count
// and the bin block follow.
func Columns() []Column {
	return []Column{
		{Title: "Group Name", Format: FormatGeneral, Merged: true},
		{Title: "Floor", Format: FormatGeneral, Merged: true},
		{Title: "Mod", Format: FormatGeneral, Merged: true},
		{Title: "Depth", Format: FormatGeneral, Merged: true},
		{Title: "Start Aisle", Format: FormatInteger, Merged: true},
		{Title: "End Aisle", Format: FormatInteger, Merged: true},
		{Title: "# of Bays", Format: FormatInteger, Merged: true},
		{Title: "Total # of Shelves per Bay", Format: FormatInteger, Merged: true},
		{Title: "Bay Design", Format: FormatGeneral, Merged: true},
		{Title: "# of Aisles", Format: FormatInteger},
		{Title: "Bin Box Type", Format: FormatGeneral},
		{Title: "Depth (mm)", Format: FormatDecimal},
		{Title: "Height (mm)", Format: FormatDecimal},
		{Title: "Width (mm)", Format: FormatDecimal},
		{Title: "Lip (cm)", Format: FormatGeneral},
		{Title: "# of Shelves per Bay", Format: FormatInteger},
		{Title: "Qty bins per Shelf", Format: FormatInteger},
		{Title: "Qty Per Bay", Format: FormatInteger},
		{Title: "Total Quantity", Format: FormatInteger},
		{Title: "UT", Format: FormatDecimal},
		{Title: "Bin Gross CBM", Format: FormatDecimal},
		{Title: "Bin Net CBM", Format: FormatDecimal},
	}
}

// Table is the flat export table: one row per (group, surviving bin) pair in
// group-then-bin order, plus the per-group row counts that drive the vertical
// merge spans. A group whose references all dangle counts 0 and owns no rows.
type Table struct {
	Columns        []Column
	Rows           [][]any
	GroupRowCounts []int
}

// Build flattens groups × referenced bins into the export table. Bin ids
// absent from the library are skipped without counting: the stores keep
// references synchronized, but the builder must not fail when that invariant
// has been violated.
func Build(groups []storage.Group, bins []storage.BinDefinition, eng derive.Engine) Table {
	library := make(map[int]storage.BinDefinition, len(bins))
	for _, b := range bins {
		library[b.ID] = b
	}

	table := Table{
		Columns:        Columns(),
		Rows:           [][]any{},
		GroupRowCounts: make([]int, 0, len(groups)),
	}

	for _, group := range groups {
		emitted := 0
		for _, id := range group.BinIDs {
			bin, ok := library[id]
			if !ok {
				continue
			}
			table.Rows = append(table.Rows, buildRow(group, bin, eng.Derive(group, bin)))
			emitted++
		}
		table.GroupRowCounts = append(table.GroupRowCounts, emitted)
	}

	return table
}

// buildRow merges group fields, bin fields, and derived fields into one flat
// record in Columns() order.
func buildRow(group storage.Group, bin storage.BinDefinition, fields derive.Fields) []any {
	return []any{
		group.Name,
		group.Floor,
		group.Mod,
		group.Depth,
		group.StartAisle,
		group.EndAisle,
		group.BayCount,
		group.ShelvesPerBay,
		group.BayDesign,
		fields.Aisles,
		BinLabel(bin),
		bin.DepthMM,
		bin.HeightMM,
		bin.WidthMM,
		fields.LipCell,
		bin.ShelvesPerBay,
		bin.BinsPerShelf,
		fields.QtyPerBay,
		fields.TotalQty,
		bin.UT,
		fields.GrossCBM,
		fields.NetCBM,
	}
}

// BinLabel returns the display label for a bin: its name, or a stable
// id-derived fallback when the name is empty.
func BinLabel(bin storage.BinDefinition) string {
	if bin.Name != "" {
		return bin.Name
	}
	return fmt.Sprintf("bin_%d", bin.ID)
}
