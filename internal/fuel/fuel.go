// Package fuel maps point totals to the fuel-tank units used for display.
package fuel

// Tanks holds the number of liters per fuel grade. One liter of a grade
// is worth its point denomination: ethanol=5, fuel98=4, fuel95=3,
// fuel91=2, diesel=1.
type Tanks struct {
	Diesel  int64 `json:"diesel"`
	Fuel91  int64 `json:"fuel91"`
	Fuel95  int64 `json:"fuel95"`
	Fuel98  int64 `json:"fuel98"`
	Ethanol int64 `json:"ethanol"`
}

// Grade describes a single fuel grade, used in notifications and exports.
type Grade struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

var grades = map[int64]Grade{
	1: {Name: "diesel", Emoji: "🟫", Color: "#8B7355"},
	2: {Name: "91", Emoji: "🟩", Color: "#22C55E"},
	3: {Name: "95", Emoji: "🟥", Color: "#EF4444"},
	4: {Name: "98", Emoji: "⚪", Color: "#F5F5F5"},
	5: {Name: "ethanol", Emoji: "🟦", Color: "#3B82F6"},
}

// GradeForPoints returns the fuel grade for a single request's point value.
// Values outside 1..5 return ok=false.
func GradeForPoints(points int64) (Grade, bool) {
	g, ok := grades[points]
	return g, ok
}

// Quantize decomposes a point total into tank liters, largest grade first.
// Negative totals quantize to an empty tank set. The decomposition is
// recomputed from the total on every call so concurrent ledger writes are
// reflected on the next read.
func Quantize(total int64) Tanks {
	var t Tanks
	remaining := total
	if remaining < 0 {
		remaining = 0
	}
	t.Ethanol = remaining / 5
	remaining %= 5
	t.Fuel98 = remaining / 4
	remaining %= 4
	t.Fuel95 = remaining / 3
	remaining %= 3
	t.Fuel91 = remaining / 2
	remaining %= 2
	t.Diesel = remaining
	return t
}

// Liters is the total unit count across all grades.
func (t Tanks) Liters() int64 {
	return t.Diesel + t.Fuel91 + t.Fuel95 + t.Fuel98 + t.Ethanol
}

// Points recomposes the total the tanks were quantized from.
func (t Tanks) Points() int64 {
	return t.Diesel + 2*t.Fuel91 + 3*t.Fuel95 + 4*t.Fuel98 + 5*t.Ethanol
}
