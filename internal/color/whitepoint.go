package color

import "math"

// Whitepoint converts a color temperature in Kelvin to per-channel RGB
// weights approximating blackbody radiation, normalized so the largest
// channel is 1.0. Temperatures below 6500 K follow the Planckian locus
// (Krystek approximation); higher temperatures follow the CIE daylight
// locus, so the tint stays continuous with standard daylight whites.
func Whitepoint(kelvin int) (rw, gw, bw float64) {
	t := float64(kelvin)
	if t < 1000 {
		t = 1000
	}
	if t > 25000 {
		t = 25000
	}

	var x, y float64
	if t < 6500 {
		x, y = planckianChromaticity(t)
	} else {
		x, y = daylightChromaticity(t)
	}

	return chromaticityToRGB(x, y)
}

// planckianChromaticity returns CIE 1931 (x, y) on the blackbody locus,
// via Krystek's CIE 1960 (u, v) polynomial.
func planckianChromaticity(t float64) (float64, float64) {
	u := (0.860117757 + 1.54118254e-4*t + 1.28641212e-7*t*t) /
		(1 + 8.42420235e-4*t + 7.08145163e-7*t*t)
	v := (0.317398726 + 4.22806245e-5*t + 4.20481691e-8*t*t) /
		(1 - 2.89741816e-5*t + 1.61456053e-7*t*t)

	d := 2*u - 8*v + 4
	return 3 * u / d, 2 * v / d
}

// daylightChromaticity returns CIE 1931 (x, y) on the CIE daylight locus
func daylightChromaticity(t float64) (float64, float64) {
	var x float64
	if t <= 7000 {
		x = 0.244063 + 0.09911e3/t + 2.9678e6/(t*t) - 4.6070e9/(t*t*t)
	} else {
		x = 0.237040 + 0.24748e3/t + 1.9018e6/(t*t) - 2.0064e9/(t*t*t)
	}
	y := -3*x*x + 2.87*x - 0.275
	return x, y
}

// chromaticityToRGB converts an (x, y) chromaticity at full luminance to
// linear sRGB weights with the largest channel scaled to 1.0.
func chromaticityToRGB(x, y float64) (float64, float64, float64) {
	bigX := x / y
	bigY := 1.0
	bigZ := (1 - x - y) / y

	r := 3.2404542*bigX - 1.5371385*bigY - 0.4985314*bigZ
	g := -0.9692660*bigX + 1.8760108*bigY + 0.0415560*bigZ
	b := 0.0556434*bigX - 0.2040259*bigY + 1.0572252*bigZ

	r = math.Max(r, 0)
	g = math.Max(g, 0)
	b = math.Max(b, 0)

	max := math.Max(r, math.Max(g, b))
	if max == 0 {
		return 1, 1, 1
	}
	return r / max, g / max, b / max
}
