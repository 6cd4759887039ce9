// Package grid tracks which build-grid cells are reserved by placements.
// Reservations are bookkeeping only; the nav grid never changes for them.
package grid

import (
	"fmt"

	"gridwar/server/internal/geom"
)

// Occupancy is the reservation table. Owners are placement identifiers
// (or entity identifiers for non-placement reservations).
type Occupancy struct {
	cells  map[geom.Cell]int64
	owners map[int64][]geom.Cell
}

func NewOccupancy() *Occupancy {
	return &Occupancy{
		cells:  make(map[geom.Cell]int64),
		owners: make(map[int64][]geom.Cell),
	}
}

// Reserve claims every cell for the owner. All-or-nothing: if any cell is
// held by a different owner, nothing is reserved.
func (o *Occupancy) Reserve(cells []geom.Cell, owner int64) error {
	for _, cell := range cells {
		if holder, taken := o.cells[cell]; taken && holder != owner {
			return fmt.Errorf("grid: cell (%d,%d) reserved by %d", cell.X, cell.Z, holder)
		}
	}
	for _, cell := range cells {
		if _, taken := o.cells[cell]; taken {
			continue
		}
		o.cells[cell] = owner
		o.owners[owner] = append(o.owners[owner], cell)
	}
	return nil
}

// Release frees every cell held by the owner and reports how many were
// freed.
func (o *Occupancy) Release(owner int64) int {
	cells := o.owners[owner]
	for _, cell := range cells {
		delete(o.cells, cell)
	}
	delete(o.owners, owner)
	return len(cells)
}

// OwnerAt reports the reservation holder for a cell.
func (o *Occupancy) OwnerAt(cell geom.Cell) (int64, bool) {
	owner, ok := o.cells[cell]
	return owner, ok
}

// AvailableFor reports whether every cell is free or already held by the
// owner. Callers use it to validate a replacement footprint before the
// owner's current reservation is released.
func (o *Occupancy) AvailableFor(cells []geom.Cell, owner int64) bool {
	for _, cell := range cells {
		if holder, taken := o.cells[cell]; taken && holder != owner {
			return false
		}
	}
	return true
}

// IsFree reports whether none of the cells are reserved.
func (o *Occupancy) IsFree(cells []geom.Cell) bool {
	for _, cell := range cells {
		if _, taken := o.cells[cell]; taken {
			return false
		}
	}
	return true
}

// Reserved reports the total reserved cell count.
func (o *Occupancy) Reserved() int {
	return len(o.cells)
}
