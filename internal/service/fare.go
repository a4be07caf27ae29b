package service

import "github.com/ligtascab/ligtascab/internal/model"

// ─── Fare Table ─────────────────────────────────────────────

// FareTable supplies the fare fixed onto a ride at creation. Injected so the
// flat city-ordinance rate is a collaborator, not a literal baked into the
// lifecycle logic.
type FareTable interface {
	FareFor(tc *model.Tricycle) string
}

// FlatFareTable charges the same fare for every ride, matching the fixed
// tricycle rate set by the LGU. No dynamic metering exists in this system.
type FlatFareTable struct {
	Amount string
}

// DefaultFlatFare is the regular single-passenger rate in pesos.
const DefaultFlatFare = "15.00"

// NewFlatFareTable returns a flat fare table, falling back to
// DefaultFlatFare when amount is empty.
func NewFlatFareTable(amount string) FlatFareTable {
	if amount == "" {
		amount = DefaultFlatFare
	}
	return FlatFareTable{Amount: amount}
}

// FareFor returns the flat rate regardless of the unit.
func (f FlatFareTable) FareFor(_ *model.Tricycle) string {
	return f.Amount
}
