package loyalty

import (
	"testing"

	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/config"
)

func defaultTable() Table {
	return NewTable([]config.LoyaltyBand{
		{MinBalance: 0, Multiplier: 1.0},
		{MinBalance: 100, Multiplier: 1.1},
		{MinBalance: 300, Multiplier: 1.2},
		{MinBalance: 600, Multiplier: 1.3},
		{MinBalance: 1000, Multiplier: 1.5},
	})
}

func TestMultiplierForBandBoundaries(t *testing.T) {
	table := defaultTable()

	cases := []struct {
		balance int64
		want    float64
	}{
		{0, 1.0},
		{99, 1.0},
		{100, 1.1},
		{299, 1.1},
		{300, 1.2},
		{599, 1.2},
		{600, 1.3},
		{999, 1.3},
		{1000, 1.5},
		{250000, 1.5},
	}

	for _, tc := range cases {
		if got := table.MultiplierFor(tc.balance); got != tc.want {
			t.Errorf("MultiplierFor(%d) = %v, want %v", tc.balance, got, tc.want)
		}
	}
}

func TestAwardRoundsHalfUp(t *testing.T) {
	table := defaultTable()

	cases := []struct {
		name       string
		balance    int64
		basePoints int64
		want       int64
	}{
		{"base band no scaling", 50, 20, 20},
		{"ten percent bonus", 150, 25, 28},     // 27.5 rounds up
		{"twenty percent bonus", 599, 10, 12},  // multiplier from balance before award
		{"thirty percent bonus", 600, 10, 13},
		{"top band", 1200, 50, 75},
		{"half rounds up", 100, 5, 6},          // 5.5
		{"just below half rounds down", 100, 4, 4}, // 4.4
		{"zero base points", 500, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := table.Award(tc.balance, tc.basePoints); got != tc.want {
				t.Errorf("Award(%d, %d) = %d, want %d", tc.balance, tc.basePoints, got, tc.want)
			}
		})
	}
}

func TestNewTableSortsBands(t *testing.T) {
	table := NewTable([]config.LoyaltyBand{
		{MinBalance: 600, Multiplier: 1.3},
		{MinBalance: 0, Multiplier: 1.0},
		{MinBalance: 100, Multiplier: 1.1},
	})

	if got := table.MultiplierFor(50); got != 1.0 {
		t.Errorf("MultiplierFor(50) = %v, want 1.0", got)
	}
	if got := table.MultiplierFor(700); got != 1.3 {
		t.Errorf("MultiplierFor(700) = %v, want 1.3", got)
	}
}
