package anim

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

const eps = 1e-5

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestClipTicksWrap(t *testing.T) {
	clip := &scene.Clip{Duration: 2, TicksPerSecond: 1}

	cases := []struct {
		seconds, want float64
	}{
		{0, 0},
		{0.5, 0.5},
		{2, 0},
		{5, 1},
		{-0.5, 1.5},
	}
	for _, c := range cases {
		if got := clipTicks(clip, c.seconds); absf(got-c.want) > eps {
			t.Errorf("clipTicks(%g) = %g, want %g", c.seconds, got, c.want)
		}
	}
}

func TestClipTicksZeroDuration(t *testing.T) {
	clip := &scene.Clip{Duration: 0, TicksPerSecond: 1}
	if got := clipTicks(clip, 3.7); got != 0 {
		t.Errorf("clipTicks on zero-duration clip = %g, want 0", got)
	}
}

func TestClipTicksDefaultRate(t *testing.T) {
	// TicksPerSecond 0 falls back to 25 ticks per second.
	clip := &scene.Clip{Duration: 30, TicksPerSecond: 0}
	if got := clipTicks(clip, 1); absf(got-25) > eps {
		t.Errorf("clipTicks with default rate = %g, want 25", got)
	}
}

func TestKeyIndex(t *testing.T) {
	times := []float64{1, 2, 4}
	at := func(i int) float64 { return times[i] }

	cases := []struct {
		ticks      float64
		wantIndex  int
		wantFactor float32
	}{
		{0.5, 0, 0}, // before the first key
		{1, 0, 0},
		{1.5, 0, 0.5},
		{3, 1, 0.5},
		{4, 2, 0}, // at the last key
		{5, 2, 0}, // past the last key
	}
	for _, c := range cases {
		i, f := keyIndex(len(times), at, c.ticks)
		if i != c.wantIndex || absf(float64(f-c.wantFactor)) > eps {
			t.Errorf("keyIndex(%g) = (%d, %g), want (%d, %g)", c.ticks, i, f, c.wantIndex, c.wantFactor)
		}
	}
}

func TestSampleVectorKeysMidpoint(t *testing.T) {
	keys := []scene.VectorKey{
		{Time: 0, Value: [3]float32{0, 0, 0}},
		{Time: 2, Value: [3]float32{2, 4, 6}},
	}
	got := sampleVectorKeys(keys, 1)
	want := [3]float32{1, 2, 3}
	for i := range want {
		if absf(float64(got[i]-want[i])) > eps {
			t.Fatalf("sampleVectorKeys midpoint = %v, want %v", got, want)
		}
	}
}

func TestSampleChannelComposesTRS(t *testing.T) {
	ch := &scene.Channel{
		Node:         "bone",
		PositionKeys: []scene.VectorKey{{Time: 0, Value: [3]float32{1, 0, 0}}},
		RotationKeys: []scene.QuatKey{{Time: 0, Value: math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2)}},
		ScaleKeys:    []scene.VectorKey{{Time: 0, Value: [3]float32{2, 2, 2}}},
	}
	local := sampleChannel(ch, 0)

	// Scale then rotate then translate: (1,0,0) -> (2,0,0) -> (0,2,0) -> (1,2,0).
	got := local.TransformPoint([3]float32{1, 0, 0})
	want := [3]float32{1, 2, 0}
	for i := range want {
		if absf(float64(got[i]-want[i])) > eps {
			t.Fatalf("sampleChannel point = %v, want %v", got, want)
		}
	}
}

func TestCheckChannelsEmptySequence(t *testing.T) {
	sc := &scene.Scene{
		Clips: []scene.Clip{{
			Name: "broken",
			Channels: []scene.Channel{{
				Node:         "bone",
				PositionKeys: []scene.VectorKey{{Time: 0}},
				RotationKeys: []scene.QuatKey{{Time: 0, Value: math.QuatIdentity()}},
			}},
		}},
	}
	if err := checkChannels(sc); !errors.Is(err, ErrEmptyChannel) {
		t.Fatalf("checkChannels = %v, want ErrEmptyChannel", err)
	}
}
