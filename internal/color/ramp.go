package color

import (
	"fmt"
	"math"
)

// MaxChannelValue is the full-scale value of one 16-bit ramp sample
const MaxChannelValue = math.MaxUint16

// FillRamp writes a gamma ramp into table, which must hold rampSize
// samples per channel in [R | G | B] order. Each channel maps linear
// input intensity through the channel weight and the gamma exponent:
//
//	table[c][i] = round(MaxChannelValue * (i/(rampSize-1) * w_c)^(1/gamma))
//
// rampSize must be at least 2; a single-entry ramp has no defined slope.
func FillRamp(table []uint16, rampSize int, rw, gw, bw, gamma float64) error {
	if rampSize < 2 {
		return fmt.Errorf("ramp size %d is too small, need at least 2", rampSize)
	}
	if len(table) != rampSize*3 {
		return fmt.Errorf("table holds %d samples, want %d", len(table), rampSize*3)
	}

	r := table[:rampSize]
	g := table[rampSize : 2*rampSize]
	b := table[2*rampSize:]
	inv := 1.0 / gamma
	for i := 0; i < rampSize; i++ {
		val := float64(i) / float64(rampSize-1)
		r[i] = rampSample(math.Pow(val*rw, inv))
		g[i] = rampSample(math.Pow(val*gw, inv))
		b[i] = rampSample(math.Pow(val*bw, inv))
	}
	return nil
}

func rampSample(v float64) uint16 {
	s := math.Round(MaxChannelValue * v)
	if s < 0 {
		return 0
	}
	if s > MaxChannelValue {
		return MaxChannelValue
	}
	return uint16(s)
}
