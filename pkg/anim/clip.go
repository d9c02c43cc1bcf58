package anim

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// defaultTicksPerSecond applies when a clip carries no tick rate, matching
// the assimp convention for exporters that leave the field unset.
const defaultTicksPerSecond = 25.0

// clipTicks maps a wall-clock time in seconds onto the clip's tick axis,
// folded into [0, duration). Negative times fold in from the end, so a
// playback running backwards still lands inside the clip. Zero-duration
// clips clamp to tick 0.
func clipTicks(clip *scene.Clip, seconds float64) float64 {
	if clip.Duration <= 0 {
		return 0
	}
	tps := clip.TicksPerSecond
	if tps == 0 {
		tps = defaultTicksPerSecond
	}
	t := gomath.Mod(seconds*tps, clip.Duration)
	if t < 0 {
		t += clip.Duration
	}
	return t
}

// keyIndex returns the largest index i with times(i) <= ticks and the
// interpolation factor toward key i+1. Before the first key it returns
// (0, 0); at or past the last key it clamps with factor 0.
func keyIndex(n int, timeAt func(int) float64, ticks float64) (int, float32) {
	if ticks < timeAt(0) {
		return 0, 0
	}
	i := 0
	for i+1 < n && timeAt(i+1) <= ticks {
		i++
	}
	if i+1 >= n {
		return i, 0
	}
	span := timeAt(i+1) - timeAt(i)
	if span <= 0 {
		return i, 0
	}
	return i, float32((ticks - timeAt(i)) / span)
}

// sampleVectorKeys interpolates a scale or translation sequence at ticks.
func sampleVectorKeys(keys []scene.VectorKey, ticks float64) [3]float32 {
	i, f := keyIndex(len(keys), func(k int) float64 { return keys[k].Time }, ticks)
	if f == 0 {
		return keys[i].Value
	}
	return math.LerpVec3(keys[i].Value, keys[i+1].Value, f)
}

// sampleQuatKeys interpolates a rotation sequence at ticks using
// shortest-arc SLERP.
func sampleQuatKeys(keys []scene.QuatKey, ticks float64) math.Quat {
	i, f := keyIndex(len(keys), func(k int) float64 { return keys[k].Time }, ticks)
	if f == 0 {
		return keys[i].Value
	}
	return keys[i].Value.Slerp(keys[i+1].Value, f)
}

// sampleChannel evaluates one node's channel at ticks and composes the
// local transform as translation * rotation * scale.
func sampleChannel(ch *scene.Channel, ticks float64) math.Mat4 {
	s := sampleVectorKeys(ch.ScaleKeys, ticks)
	r := sampleQuatKeys(ch.RotationKeys, ticks)
	t := sampleVectorKeys(ch.PositionKeys, ticks)
	return math.Compose(math.FromArray(s), r, math.FromArray(t))
}

// checkChannels verifies that every channel of every clip carries all three
// non-empty key sequences.
func checkChannels(sc *scene.Scene) error {
	for ci := range sc.Clips {
		clip := &sc.Clips[ci]
		for i := range clip.Channels {
			ch := &clip.Channels[i]
			if len(ch.PositionKeys) == 0 || len(ch.RotationKeys) == 0 || len(ch.ScaleKeys) == 0 {
				return fmt.Errorf("%w: clip %q node %q", ErrEmptyChannel, clip.Name, ch.Node)
			}
		}
	}
	return nil
}
