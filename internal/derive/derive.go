package derive

import (
	"github.com/warehousekit/bindivider/internal/storage"
)

// cbmDivisor converts the raw mm-dimension product into the CBM figures the
// export carries. The divisor is part of the observed contract; see DESIGN.md
// for the unit discrepancy it preserves.
const cbmDivisor = 1_000_000

// Fields holds the quantities derived from pairing one group with one bin
// definition. Counts are exact integers; the CBM values are the raw dimension
// product scaled by cbmDivisor.
type Fields struct {
	Aisles    int
	QtyPerBay int
	TotalQty  int
	GrossCBM  float64
	NetCBM    float64
	LipCell   any
}

// Engine describes the behaviour required from a derivation engine.
type Engine interface {
	Derive(group storage.Group, bin storage.BinDefinition) Fields
}

type binEngine struct{}

// New creates the derivation engine. It is pure and stateless: the same
// inputs always produce the same fields, so callers may re-derive freely for
// previews and exports without caching.
func New() Engine {
	return &binEngine{}
}

// Derive computes the derived quantities for one (group, bin) pairing.
//
// The aisle count is the signed difference end - start + 1. A range entered
// backwards yields a zero or negative count, which propagates unvalidated into
// every consumer; rejecting it is an upstream concern.
func (e *binEngine) Derive(group storage.Group, bin storage.BinDefinition) Fields {
	qtyPerBay := bin.ShelvesPerBay * bin.BinsPerShelf
	grossCBM := bin.DepthMM * bin.HeightMM * bin.WidthMM / cbmDivisor

	return Fields{
		Aisles:    group.EndAisle - group.StartAisle + 1,
		QtyPerBay: qtyPerBay,
		TotalQty:  qtyPerBay * group.BayCount,
		GrossCBM:  grossCBM,
		NetCBM:    grossCBM * bin.UT,
		LipCell:   lipCell(bin.LipCM),
	}
}

// lipCell is the display substitution for the lip column: a zero lip renders
// as a placeholder dash instead of a number.
func lipCell(lipCM float64) any {
	if lipCM == 0 {
		return "-"
	}
	return lipCM
}
