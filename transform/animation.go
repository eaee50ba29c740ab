package transform

import "github.com/gogpu/vbrenderer/gpuhandle"

// Interpolation selects how a Sampler blends between keyframes, matching
// glTF's three animation.sampler.interpolation values.
type Interpolation uint8

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// ChannelTarget selects which part of a node's TRS (or a morph's weights)
// a channel drives.
type ChannelTarget uint8

const (
	TargetTranslation ChannelTarget = iota
	TargetRotation
	TargetScale
	TargetWeights
)

// Sampler holds one animation curve: keyframe times and values.
// For InterpolationCubicSpline, Values is laid out as
// [in-tangent, value, out-tangent] triples per keyframe, matching glTF.
type Sampler struct {
	Times         []float32
	Values        [][]float32 // per-keyframe value vector (3 for vec3, 4 for quat, N for weights)
	Interpolation Interpolation
}

// Channel binds a Sampler to a node and TRS/weights component.
type Channel struct {
	Target ChannelTarget
	Node   gpuhandle.TransformKey
	Morph  gpuhandle.MaterialMorphKey // used only when Target == TargetWeights
	Sampler Sampler
}

// Clip is a named collection of channels that animate together on a shared
// timeline.
type Clip struct {
	Name     string
	Channels []Channel
}

// Duration returns the clip's length, the latest keyframe time across all
// channels.
func (c Clip) Duration() float32 {
	var max float32
	for _, ch := range c.Channels {
		if n := len(ch.Sampler.Times); n > 0 && ch.Sampler.Times[n-1] > max {
			max = ch.Sampler.Times[n-1]
		}
	}
	return max
}

// Sample evaluates clip at time t (clamped to [0, Duration()]) and applies
// the result to graph's local transforms and morphWeights.
func Sample(clip Clip, t float32, graph *Graph, morphWeights *MaterialMorphTable) {
	if t < 0 {
		t = 0
	}
	if d := clip.Duration(); t > d {
		t = d
	}

	for _, ch := range clip.Channels {
		values := evaluateSampler(ch.Sampler, t)
		switch ch.Target {
		case TargetTranslation:
			applyVec3(graph, ch.Node, values, func(trs *TRS, v Vec3) { trs.Translation = v })
		case TargetRotation:
			applyQuat(graph, ch.Node, values)
		case TargetScale:
			applyVec3(graph, ch.Node, values, func(trs *TRS, v Vec3) { trs.Scale = v })
		case TargetWeights:
			if morphWeights == nil {
				continue
			}
			entry, ok := morphWeights.Get(ch.Morph)
			if !ok {
				continue
			}
			for i := range entry.Weights {
				if i < len(values) {
					entry.Weights[i] = values[i]
				}
			}
		}
	}
}

func applyVec3(graph *Graph, node gpuhandle.TransformKey, values []float32, set func(*TRS, Vec3)) {
	if len(values) < 3 {
		return
	}
	n, ok := graph.table.Get(node.Handle)
	if !ok {
		return
	}
	trs := n.local
	set(&trs, Vec3{X: values[0], Y: values[1], Z: values[2]})
	graph.SetLocal(node, trs)
}

func applyQuat(graph *Graph, node gpuhandle.TransformKey, values []float32) {
	if len(values) < 4 {
		return
	}
	n, ok := graph.table.Get(node.Handle)
	if !ok {
		return
	}
	trs := n.local
	trs.Rotation = Quat{X: values[0], Y: values[1], Z: values[2], W: values[3]}
	graph.SetLocal(node, trs)
}

// evaluateSampler interpolates s at time t.
func evaluateSampler(s Sampler, t float32) []float32 {
	if len(s.Times) == 0 {
		return nil
	}
	if t <= s.Times[0] {
		return keyframeValue(s, 0)
	}
	last := len(s.Times) - 1
	if t >= s.Times[last] {
		return keyframeValue(s, last)
	}

	i := 0
	for i < last && s.Times[i+1] < t {
		i++
	}
	t0, t1 := s.Times[i], s.Times[i+1]
	frac := float32(0)
	if t1 > t0 {
		frac = (t - t0) / (t1 - t0)
	}

	switch s.Interpolation {
	case InterpolationStep:
		return keyframeValue(s, i)
	case InterpolationCubicSpline:
		return cubicSpline(s, i, t1-t0, frac)
	default:
		return lerp(keyframeValue(s, i), keyframeValue(s, i+1), frac)
	}
}

// keyframeValue extracts keyframe i's value vector, skipping the
// in/out-tangent components cubic-spline samplers store alongside it.
func keyframeValue(s Sampler, i int) []float32 {
	v := s.Values[i]
	if s.Interpolation != InterpolationCubicSpline {
		return v
	}
	n := len(v) / 3
	return v[n : 2*n]
}

func lerp(a, b []float32, frac float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*frac
	}
	return out
}

// cubicSpline evaluates glTF's Hermite cubic spline interpolation between
// keyframes i and i+1, dt apart, at normalized position frac.
func cubicSpline(s Sampler, i int, dt float32, frac float32) []float32 {
	n := len(s.Values[i]) / 3
	p0 := s.Values[i][n : 2*n]
	m0 := s.Values[i][2*n : 3*n]
	p1 := s.Values[i+1][n : 2*n]
	m1 := s.Values[i+1][0:n]

	t := frac
	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	out := make([]float32, n)
	for k := 0; k < n; k++ {
		out[k] = h00*p0[k] + h10*dt*m0[k] + h01*p1[k] + h11*dt*m1[k]
	}
	return out
}
