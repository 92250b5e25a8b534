package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/domain"
)

// SelectionMode tags how one cart line resolves to a stock counter. Each mode
// maps to exactly one decrement path in the commit transaction.
type SelectionMode int

const (
	// SelectPlain debits product.stock directly.
	SelectPlain SelectionMode = iota
	// SelectColored debits the matching color variant and the product
	// aggregate together.
	SelectColored
	// SelectStoragePlain debits storage.stock directly (legacy carts without
	// a color selection).
	SelectStoragePlain
	// SelectStorageUnit debits the matching unit and the storage aggregate
	// together.
	SelectStorageUnit
)

func (m SelectionMode) String() string {
	switch m {
	case SelectPlain:
		return "plain"
	case SelectColored:
		return "colored"
	case SelectStoragePlain:
		return "storage"
	case SelectStorageUnit:
		return "storage-unit"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// PlanLine is one validated cart line with its resolved stock path and frozen
// unit price.
type PlanLine struct {
	Mode      SelectionMode
	Product   *domain.Product
	Variant   *domain.ColorVariant
	Storage   *domain.Storage
	Unit      *domain.StorageUnit
	Quantity  int
	Color     string
	BasePrice float64
	UnitPrice float64
}

// Plan is a fully validated cart ready for the commit transaction.
type Plan struct {
	Lines    []PlanLine
	Subtotal float64
}

// BuildPlan validates every cart line against the snapshot and resolves its
// selection mode, stock source and authoritative price. It fails fast on the
// first unsatisfiable line; partial fulfilment is never attempted. The
// snapshot read is accepted as potentially stale: the commit transaction's
// conditional decrements remain the final guard against races.
func BuildPlan(snap *Snapshot, lines []CartLine, now time.Time) (*Plan, *Error) {
	plan := &Plan{Lines: make([]PlanLine, 0, len(lines))}
	for _, ln := range lines {
		product := snap.Product(ln.ProductID)
		if product == nil {
			return nil, errUnknownProduct(ln.ProductID)
		}

		var pl PlanLine
		var cerr *Error
		if product.Type == domain.ProductTypeStorage {
			pl, cerr = resolveStorageLine(product, ln, now)
		} else {
			pl, cerr = resolveSimpleLine(product, ln, now)
		}
		if cerr != nil {
			return nil, cerr
		}
		plan.Lines = append(plan.Lines, pl)
		plan.Subtotal += pl.UnitPrice * float64(pl.Quantity)
	}
	return plan, nil
}

func resolveSimpleLine(product *domain.Product, ln CartLine, now time.Time) (PlanLine, *Error) {
	base, effective := ResolveSimplePrice(product, now)
	pl := PlanLine{
		Mode:      SelectPlain,
		Product:   product,
		Quantity:  ln.Quantity,
		BasePrice: base,
		UnitPrice: effective,
	}

	if ln.Color == "" {
		if product.Stock < ln.Quantity {
			return pl, errInsufficientStock(product.Name, "")
		}
		return pl, nil
	}

	variant := findVariant(product.Variants, ln.Color)
	if variant == nil {
		return pl, errUnknownColor(product.Name, ln.Color)
	}
	if variant.Quantity < ln.Quantity {
		return pl, errInsufficientStock(product.Name, variant.Color)
	}
	pl.Mode = SelectColored
	pl.Variant = variant
	pl.Color = variant.Color
	return pl, nil
}

func resolveStorageLine(product *domain.Product, ln CartLine, now time.Time) (PlanLine, *Error) {
	if ln.StorageID == nil {
		return PlanLine{}, errStorageRequired(product.Name)
	}
	storage := findStorage(product.Storages, *ln.StorageID)
	if storage == nil {
		return PlanLine{}, errUnknownStorage(product.Name, *ln.StorageID)
	}

	pl := PlanLine{
		Product:  product,
		Storage:  storage,
		Quantity: ln.Quantity,
	}

	if ln.Color == "" {
		// Legacy selection without a color: the tier aggregate is the
		// counter, no tax applies.
		pl.Mode = SelectStoragePlain
		pl.BasePrice, pl.UnitPrice = ResolveStoragePrice(storage, nil, now)
		if storage.Stock < ln.Quantity {
			return pl, errInsufficientStock(product.Name, "")
		}
		return pl, nil
	}

	unit := findUnit(storage.Units, ln.Color, ln.Quantity)
	if unit == nil {
		return pl, errUnknownColor(product.Name, ln.Color)
	}
	pl.Mode = SelectStorageUnit
	pl.Unit = unit
	pl.Color = unit.Color
	pl.BasePrice, pl.UnitPrice = ResolveStoragePrice(storage, unit, now)
	if unit.Stock < ln.Quantity || storage.Stock < ln.Quantity {
		return pl, errInsufficientStock(product.Name, unit.Color)
	}
	return pl, nil
}

func findVariant(variants []domain.ColorVariant, color string) *domain.ColorVariant {
	for i := range variants {
		if strings.EqualFold(variants[i].Color, color) {
			return &variants[i]
		}
	}
	return nil
}

func findStorage(storages []domain.Storage, id int64) *domain.Storage {
	for i := range storages {
		if storages[i].ID == id {
			return &storages[i]
		}
	}
	return nil
}

// findUnit resolves the purchasable unit for a color. The same color may
// appear more than once under a storage with different tax treatments; the
// first one able to satisfy qty wins, falling back to the first color match
// so an out-of-stock color still reports insufficient stock rather than an
// unknown option.
func findUnit(units []domain.StorageUnit, color string, qty int) *domain.StorageUnit {
	var colorMatch *domain.StorageUnit
	for i := range units {
		if !strings.EqualFold(units[i].Color, color) {
			continue
		}
		if units[i].Stock >= qty {
			return &units[i]
		}
		if colorMatch == nil {
			colorMatch = &units[i]
		}
	}
	return colorMatch
}
