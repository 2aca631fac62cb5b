package util

import (
	"fmt"
	"math"
)

// FormatValueFactor prints value with an engineering prefix on unit.
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1e9:
		return fmt.Sprintf("%.3f G%s", value/1e9, unit)
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1 || absValue == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

func FormatPerUnit(value float64) string {
	return fmt.Sprintf("%9.6f pu", value)
}

func FormatAngle(rad float64) string {
	return fmt.Sprintf("%8.4f deg", Degrees(rad))
}

// FormatPhasor prints "name=|v|<angle deg" with the angle given in radians.
func FormatPhasor(name string, magnitude, phase float64) string {
	return fmt.Sprintf("%s=%8.6f<%8.4fdeg", name, magnitude, Degrees(phase))
}

// FormatPower prints a complex power as "P + jQ" scaled to base (MVA).
func FormatPower(s complex128, base float64) string {
	p, q := real(s)*base, imag(s)*base
	sign := "+"
	if q < 0 || (q == 0 && math.Signbit(q)) {
		sign = "-"
		q = -q
	}
	return fmt.Sprintf("%10.4f %s j%.4f", p, sign, q)
}
