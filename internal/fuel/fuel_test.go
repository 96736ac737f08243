package fuel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantize(t *testing.T) {
	testCases := []struct {
		name   string
		total  int64
		want   Tanks
		liters int64
	}{
		{"zero", 0, Tanks{}, 0},
		{"single diesel", 1, Tanks{Diesel: 1}, 1},
		{"single 91", 2, Tanks{Fuel91: 1}, 1},
		{"single 95", 3, Tanks{Fuel95: 1}, 1},
		{"single 98", 4, Tanks{Fuel98: 1}, 1},
		{"single ethanol", 5, Tanks{Ethanol: 1}, 1},
		{"six is ethanol plus diesel", 6, Tanks{Ethanol: 1, Diesel: 1}, 2},
		{"seven is ethanol plus 91", 7, Tanks{Ethanol: 1, Fuel91: 1}, 2},
		{"nine is ethanol plus 98", 9, Tanks{Ethanol: 1, Fuel98: 1}, 2},
		{"twenty", 20, Tanks{Ethanol: 4}, 4},
		{"twenty three", 23, Tanks{Ethanol: 4, Fuel95: 1}, 5},
		{"negative clamps to empty", -7, Tanks{}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Quantize(tc.total)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.liters, got.Liters())
		})
	}
}

func TestQuantizeRoundTrip(t *testing.T) {
	for total := int64(0); total <= 500; total++ {
		tanks := Quantize(total)
		assert.Equal(t, total, tanks.Points(), "total %d", total)

		// Greedy over 5..1 is canonical: liter count must be minimal,
		// i.e. ceil(total/5).
		minimal := (total + 4) / 5
		assert.Equal(t, minimal, tanks.Liters(), "total %d", total)
	}
}

func TestGradeForPoints(t *testing.T) {
	g, ok := GradeForPoints(5)
	assert.True(t, ok)
	assert.Equal(t, "ethanol", g.Name)

	_, ok = GradeForPoints(0)
	assert.False(t, ok)
	_, ok = GradeForPoints(6)
	assert.False(t, ok)
}
