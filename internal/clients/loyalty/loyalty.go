// Package loyalty implements the points accrual policy for salon clients.
//
// Clients earn the base points of a completed service scaled by a multiplier
// that grows with their current balance. The multiplier is looked up in a
// band table before the new points are added, so a client sitting at the top
// of a band does not benefit from the award that pushes them over the edge.
package loyalty

import (
	"math"
	"sort"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
)

// Band maps a minimum balance to its accrual multiplier.
type Band struct {
	MinBalance int64
	Multiplier float64
}

// Table is a band table ordered by ascending MinBalance.
// The first band must start at balance 0.
type Table []Band

// NewTable builds a Table from configured bands, sorted by MinBalance.
func NewTable(bands []config.LoyaltyBand) Table {
	t := make(Table, len(bands))
	for i, b := range bands {
		t[i] = Band{MinBalance: b.MinBalance, Multiplier: b.Multiplier}
	}
	sort.Slice(t, func(i, j int) bool { return t[i].MinBalance < t[j].MinBalance })
	return t
}

// MultiplierFor returns the multiplier of the band containing balance.
func (t Table) MultiplierFor(balance int64) float64 {
	multiplier := 1.0
	for _, b := range t {
		if balance >= b.MinBalance {
			multiplier = b.Multiplier
			continue
		}
		break
	}
	return multiplier
}

// Award computes the points granted for a service with basePoints to a client
// holding balance. The result is rounded half up to the nearest whole point.
func (t Table) Award(balance, basePoints int64) int64 {
	multiplier := t.MultiplierFor(balance)
	return int64(math.Floor(float64(basePoints)*multiplier + 0.5))
}
