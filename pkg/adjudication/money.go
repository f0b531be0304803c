package adjudication

import (
	"math"

	"github.com/dustin/go-humanize"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rupees formats an amount as ₹1,234.50.
func rupees(v float64) string {
	out := "₹" + humanize.FormatFloat("#,###.##", math.Abs(round2(v)))
	if v < 0 && round2(v) != 0 {
		return "-" + out
	}
	return out
}

// trimFloat prints 10 as "10" and 12.5 as "12.5".
func trimFloat(v float64) string {
	return humanize.Ftoa(v)
}
