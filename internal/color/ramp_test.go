package color

import (
	"math"
	"testing"
)

func TestFillRampFullScale(t *testing.T) {
	const rampSize = 256
	table := make([]uint16, rampSize*3)

	if err := FillRamp(table, rampSize, 1, 1, 1, 1.0); err != nil {
		t.Fatalf("FillRamp failed: %v", err)
	}

	for c := 0; c < 3; c++ {
		channel := table[c*rampSize : (c+1)*rampSize]
		if channel[0] != 0 {
			t.Errorf("channel %d starts at %d, want 0", c, channel[0])
		}
		if channel[rampSize-1] != MaxChannelValue {
			t.Errorf("channel %d ends at %d, want %d", c, channel[rampSize-1], MaxChannelValue)
		}
		for i := 1; i < rampSize; i++ {
			if channel[i] < channel[i-1] {
				t.Fatalf("channel %d not monotone at index %d: %d < %d", c, i, channel[i], channel[i-1])
			}
		}
	}
}

func TestFillRampMinimumSize(t *testing.T) {
	table := make([]uint16, 2*3)
	if err := FillRamp(table, 2, 1, 1, 1, 1.0); err != nil {
		t.Fatalf("FillRamp failed: %v", err)
	}

	for c := 0; c < 3; c++ {
		if table[c*2] != 0 || table[c*2+1] != MaxChannelValue {
			t.Errorf("channel %d = [%d, %d], want [0, %d]",
				c, table[c*2], table[c*2+1], MaxChannelValue)
		}
	}
}

func TestFillRampGammaExponent(t *testing.T) {
	// With gamma 2.0 the midpoint maps through sqrt(0.5)
	table := make([]uint16, 3*3)
	if err := FillRamp(table, 3, 1, 1, 1, 2.0); err != nil {
		t.Fatalf("FillRamp failed: %v", err)
	}

	want := uint16(math.Round(MaxChannelValue * math.Sqrt(0.5)))
	if diff := int(table[1]) - int(want); diff < -1 || diff > 1 {
		t.Errorf("midpoint = %d, want %d", table[1], want)
	}
}

func TestFillRampWeightsScaleChannels(t *testing.T) {
	const rampSize = 16
	table := make([]uint16, rampSize*3)
	if err := FillRamp(table, rampSize, 1.0, 0.8, 0.5, 1.0); err != nil {
		t.Fatalf("FillRamp failed: %v", err)
	}

	r := table[:rampSize]
	g := table[rampSize : 2*rampSize]
	b := table[2*rampSize:]
	for i := 1; i < rampSize; i++ {
		if !(r[i] >= g[i] && g[i] >= b[i]) {
			t.Fatalf("index %d: weights not respected: r=%d g=%d b=%d", i, r[i], g[i], b[i])
		}
	}
	if b[rampSize-1] != uint16(math.Round(MaxChannelValue*0.5)) {
		t.Errorf("blue full scale = %d, want %d", b[rampSize-1], uint16(math.Round(MaxChannelValue*0.5)))
	}
}

func TestFillRampRejectsBadInput(t *testing.T) {
	if err := FillRamp(make([]uint16, 3), 1, 1, 1, 1, 1.0); err == nil {
		t.Error("expected error for ramp size 1")
	}
	if err := FillRamp(make([]uint16, 5), 2, 1, 1, 1, 1.0); err == nil {
		t.Error("expected error for short table")
	}
}

func TestWhitepointWarmTint(t *testing.T) {
	rw, gw, bw := Whitepoint(3000)
	if rw != 1.0 {
		t.Errorf("red weight = %f, want 1.0 at warm temperatures", rw)
	}
	if !(bw < gw && gw < rw) {
		t.Errorf("expected blue < green < red at 3000 K, got r=%f g=%f b=%f", rw, gw, bw)
	}
}

func TestWhitepointNeutralDaylight(t *testing.T) {
	rw, gw, bw := Whitepoint(6500)
	for name, w := range map[string]float64{"red": rw, "green": gw, "blue": bw} {
		if w < 0.9 || w > 1.0 {
			t.Errorf("%s weight = %f, want near 1.0 at 6500 K", name, w)
		}
	}
}

func TestWhitepointCoolTint(t *testing.T) {
	rw, _, bw := Whitepoint(10000)
	if bw != 1.0 {
		t.Errorf("blue weight = %f, want 1.0 at cool temperatures", bw)
	}
	if rw >= 1.0 {
		t.Errorf("red weight = %f, want < 1.0 at 10000 K", rw)
	}
}
