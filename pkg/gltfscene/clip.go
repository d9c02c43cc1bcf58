package gltfscene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/skelanim/pkg/math"
	"github.com/Faultbox/skelanim/pkg/scene"
)

// importClips converts every glTF animation into a clip. glTF keys one
// sampler per TRS property; the runtime wants one channel per node with all
// three sequences present, so samplers targeting the same node are merged
// and any missing sequence is synthesized from the node's static transform.
// Key times stay in seconds, so TicksPerSecond is 1.
func importClips(doc *gltf.Document, names []string) ([]scene.Clip, error) {
	clips := make([]scene.Clip, 0, len(doc.Animations))
	for ai, ga := range doc.Animations {
		name := ga.Name
		if name == "" {
			name = fmt.Sprintf("clip_%d", ai)
		}

		byNode := make(map[int]*scene.Channel)
		var order []int
		duration := 0.0

		for _, ch := range ga.Channels {
			if ch.Target.Node == nil || ch.Sampler < 0 || ch.Sampler >= len(ga.Samplers) {
				continue
			}
			n := *ch.Target.Node
			if n < 0 || n >= len(names) {
				continue
			}
			sampler := ga.Samplers[ch.Sampler]

			times, err := readKeyTimes(doc, sampler)
			if err != nil {
				return nil, fmt.Errorf("animation %q: %w", name, err)
			}
			if len(times) == 0 {
				continue
			}
			if last := times[len(times)-1]; last > duration {
				duration = last
			}

			out := byNode[n]
			if out == nil {
				out = &scene.Channel{Node: names[n]}
				byNode[n] = out
				order = append(order, n)
			}

			switch ch.Target.Path {
			case gltf.TRSTranslation:
				vals, err := readVec3Keys(doc, sampler)
				if err != nil {
					return nil, fmt.Errorf("animation %q node %q translation: %w", name, names[n], err)
				}
				out.PositionKeys = vectorKeys(times, vals)
			case gltf.TRSScale:
				vals, err := readVec3Keys(doc, sampler)
				if err != nil {
					return nil, fmt.Errorf("animation %q node %q scale: %w", name, names[n], err)
				}
				out.ScaleKeys = vectorKeys(times, vals)
			case gltf.TRSRotation:
				vals, err := readVec4Keys(doc, sampler)
				if err != nil {
					return nil, fmt.Errorf("animation %q node %q rotation: %w", name, names[n], err)
				}
				out.RotationKeys = quatKeys(times, vals)
			default:
				// Morph-target weights are outside the skeletal runtime.
			}
		}

		channels := make([]scene.Channel, 0, len(order))
		for _, n := range order {
			ch := byNode[n]
			fillStatic(ch, doc.Nodes[n])
			channels = append(channels, *ch)
		}

		clips = append(clips, scene.Clip{
			Name:           name,
			Duration:       duration,
			TicksPerSecond: 1,
			Channels:       channels,
		})
	}
	return clips, nil
}

// fillStatic completes a merged channel with single keys taken from the
// node's static transform, so every channel carries all three sequences.
func fillStatic(ch *scene.Channel, gn *gltf.Node) {
	if len(ch.PositionKeys) > 0 && len(ch.RotationKeys) > 0 && len(ch.ScaleKeys) > 0 {
		return
	}
	s, r, t := nodeTransform(gn).Decompose()
	if len(ch.PositionKeys) == 0 {
		ch.PositionKeys = []scene.VectorKey{{Time: 0, Value: t.Array()}}
	}
	if len(ch.RotationKeys) == 0 {
		ch.RotationKeys = []scene.QuatKey{{Time: 0, Value: r}}
	}
	if len(ch.ScaleKeys) == 0 {
		ch.ScaleKeys = []scene.VectorKey{{Time: 0, Value: s.Array()}}
	}
}

func vectorKeys(times []float64, vals [][3]float32) []scene.VectorKey {
	n := len(times)
	if len(vals) < n {
		n = len(vals)
	}
	keys := make([]scene.VectorKey, n)
	for i := 0; i < n; i++ {
		keys[i] = scene.VectorKey{Time: times[i], Value: vals[i]}
	}
	return keys
}

func quatKeys(times []float64, vals [][4]float32) []scene.QuatKey {
	n := len(times)
	if len(vals) < n {
		n = len(vals)
	}
	keys := make([]scene.QuatKey, n)
	for i := 0; i < n; i++ {
		v := vals[i]
		keys[i] = scene.QuatKey{
			Time:  times[i],
			Value: math.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}.Normalize(),
		}
	}
	return keys
}

func readKeyTimes(doc *gltf.Document, sampler *gltf.AnimationSampler) ([]float64, error) {
	if sampler.Input < 0 || sampler.Input >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: sampler input accessor out of range", ErrBadDocument)
	}
	raw, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Input], nil)
	if err != nil {
		return nil, fmt.Errorf("key times: %w", err)
	}
	vals, ok := raw.([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: key times are not float scalars", ErrBadDocument)
	}
	times := make([]float64, len(vals))
	for i, v := range vals {
		times[i] = float64(v)
	}
	return times, nil
}

func readVec3Keys(doc *gltf.Document, sampler *gltf.AnimationSampler) ([][3]float32, error) {
	raw, err := readOutput(doc, sampler)
	if err != nil {
		return nil, err
	}
	vals, ok := raw.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("%w: keys are not float VEC3", ErrBadDocument)
	}
	return vals, nil
}

func readVec4Keys(doc *gltf.Document, sampler *gltf.AnimationSampler) ([][4]float32, error) {
	raw, err := readOutput(doc, sampler)
	if err != nil {
		return nil, err
	}
	vals, ok := raw.([][4]float32)
	if !ok {
		return nil, fmt.Errorf("%w: keys are not float VEC4", ErrBadDocument)
	}
	return vals, nil
}

func readOutput(doc *gltf.Document, sampler *gltf.AnimationSampler) (any, error) {
	if sampler.Output < 0 || sampler.Output >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: sampler output accessor out of range", ErrBadDocument)
	}
	raw, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Output], nil)
	if err != nil {
		return nil, fmt.Errorf("key values: %w", err)
	}
	return raw, nil
}
