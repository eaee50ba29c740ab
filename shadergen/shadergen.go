// Package shadergen expands a single parameterized WGSL template into a
// concrete vertex+fragment shader pair for one feature set: the attribute
// kinds and counts present on a mesh, its morph/skin/instancing flags,
// its material kind, texture UV-set assignment, the alpha-mask flag, and
// the MSAA sample count of the pass it renders in. No WGSL preprocessor
// macros are used at runtime; every axis of variation is resolved here,
// in Go, before the source text reaches naga.
package shadergen

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/slices"

	"github.com/gogpu/naga"
)

// AttributeKind enumerates the vertex attribute kinds a mesh can carry,
// in the fixed ordering vertex-location assignment follows.
type AttributeKind uint8

const (
	AttributePosition AttributeKind = iota
	AttributeNormal
	AttributeTangent
	AttributeColor
	AttributeTexCoord
	AttributeJoints
	AttributeWeights
)

func (k AttributeKind) wgslName(index int) string {
	switch k {
	case AttributePosition:
		return "position"
	case AttributeNormal:
		return "normal"
	case AttributeTangent:
		return "tangent"
	case AttributeColor:
		return fmt.Sprintf("color_%d", index)
	case AttributeTexCoord:
		return fmt.Sprintf("texcoord_%d", index)
	case AttributeJoints:
		return fmt.Sprintf("joints_%d", index)
	case AttributeWeights:
		return fmt.Sprintf("weights_%d", index)
	default:
		return "unknown"
	}
}

func (k AttributeKind) wgslType() string {
	switch k {
	case AttributePosition, AttributeNormal, AttributeTangent:
		return "vec3<f32>"
	case AttributeColor:
		return "vec4<f32>"
	case AttributeTexCoord:
		return "vec2<f32>"
	case AttributeJoints:
		return "vec4<u32>"
	case AttributeWeights:
		return "vec4<f32>"
	default:
		return "f32"
	}
}

// interpolation returns the interpolation qualifier for the kind: flat
// for joint indices (they select, not blend), smooth otherwise.
func (k AttributeKind) interpolation() string {
	if k == AttributeJoints {
		return "flat"
	}
	return ""
}

// AttributeSet describes how many instances of each variable-count
// attribute kind a mesh carries. Position is assumed always present.
type AttributeSet struct {
	Normal        bool
	Tangent       bool
	ColorCount    int
	TexCoordCount int
	JointSetCount int // one set = one vec4<u32> index + one vec4<f32> weight attribute pair
}

// FeatureSet is the complete axis-of-variation input to shader generation,
// matching the shader key's fields in spec §4.6.
type FeatureSet struct {
	Attributes       AttributeSet
	MorphTargetCount int
	Instancing       bool
	MaterialKind     uint8
	TextureUVIndices map[string]int
	AlphaMask        bool
	MSAASampleCount  uint32
}

// VertexLocation is one assigned `@location(n)` binding in the generated
// vertex shader input.
type VertexLocation struct {
	Location      uint32
	Name          string
	WGSLType      string
	Interpolation string
}

// AssignVertexLocations assigns `@location` indices in the fixed order
// (position, normal, tangent, colors×N, texcoords×N, joints×N, weights×N)
// per spec §4.8. When instancing is enabled, four consecutive locations
// for the instance transform's matrix rows follow all per-vertex
// attributes.
func AssignVertexLocations(fs FeatureSet) []VertexLocation {
	var locs []VertexLocation
	next := uint32(0)

	add := func(kind AttributeKind, count int) {
		for i := 0; i < count; i++ {
			locs = append(locs, VertexLocation{
				Location:      next,
				Name:          kind.wgslName(i),
				WGSLType:      kind.wgslType(),
				Interpolation: kind.interpolation(),
			})
			next++
		}
	}

	add(AttributePosition, 1)
	if fs.Attributes.Normal {
		add(AttributeNormal, 1)
	}
	if fs.Attributes.Tangent {
		add(AttributeTangent, 1)
	}
	add(AttributeColor, fs.Attributes.ColorCount)
	add(AttributeTexCoord, fs.Attributes.TexCoordCount)
	add(AttributeJoints, fs.Attributes.JointSetCount)
	add(AttributeWeights, fs.Attributes.JointSetCount)

	if fs.Instancing {
		for row := 0; row < 4; row++ {
			locs = append(locs, VertexLocation{
				Location: next,
				Name:     fmt.Sprintf("instance_transform_row_%d", row),
				WGSLType: "vec4<f32>",
			})
			next++
		}
	}

	return locs
}

// BindingKind distinguishes the three binding categories spec §4.8
// orders deterministically: uniforms first, textures next, samplers last.
type BindingKind uint8

const (
	BindingUniform BindingKind = iota
	BindingTexture
	BindingSampler
)

// Binding is one assigned `@group(0) @binding(n)` resource.
type Binding struct {
	Binding uint32
	Name    string
	Kind    BindingKind
}

// AssignBindings assigns binding indices deterministically: main uniforms
// first, then one texture-array binding per texture-UV-set entry (sorted
// by slot name for determinism), then a single sampler binding.
// atlasCount is embedded in each texture binding's name.
func AssignBindings(fs FeatureSet, atlasCount int) []Binding {
	var bindings []Binding
	next := uint32(0)

	bindings = append(bindings, Binding{Binding: next, Name: "material", Kind: BindingUniform})
	next++
	bindings = append(bindings, Binding{Binding: next, Name: "camera", Kind: BindingUniform})
	next++

	slots := make([]string, 0, len(fs.TextureUVIndices))
	for slot := range fs.TextureUVIndices {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	for _, slot := range slots {
		bindings = append(bindings, Binding{
			Binding: next,
			Name:    fmt.Sprintf("tex_%s_array_%d", slot, atlasCount),
			Kind:    BindingTexture,
		})
		next++
	}

	bindings = append(bindings, Binding{Binding: next, Name: "sampler_main", Kind: BindingSampler})
	next++

	return bindings
}

// Generate expands the template for fs into complete WGSL source text
// containing a vertex and fragment stage, with deterministic binding
// indices and vertex attribute locations per spec §4.8.
func Generate(fs FeatureSet, atlasCount int) (string, error) {
	locs := AssignVertexLocations(fs)
	bindings := AssignBindings(fs, atlasCount)

	var b strings.Builder

	b.WriteString("struct VertexInput {\n")
	for _, l := range locs {
		if l.Interpolation != "" {
			fmt.Fprintf(&b, "    @location(%d) @interpolate(%s) %s: %s,\n", l.Location, l.Interpolation, l.Name, l.WGSLType)
		} else {
			fmt.Fprintf(&b, "    @location(%d) %s: %s,\n", l.Location, l.Name, l.WGSLType)
		}
	}
	b.WriteString("}\n\n")

	for _, bnd := range bindings {
		var decl string
		switch bnd.Kind {
		case BindingUniform:
			decl = fmt.Sprintf("@group(0) @binding(%d) var<uniform> %s: %sUniform;", bnd.Binding, bnd.Name, capitalize(bnd.Name))
		case BindingTexture:
			decl = fmt.Sprintf("@group(0) @binding(%d) var %s: texture_2d_array<f32>;", bnd.Binding, bnd.Name)
		case BindingSampler:
			decl = fmt.Sprintf("@group(0) @binding(%d) var %s: sampler;", bnd.Binding, bnd.Name)
		}
		b.WriteString(decl)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	b.WriteString("@vertex\n")
	b.WriteString("fn vs_main(input: VertexInput) -> @builtin(position) vec4<f32> {\n")
	b.WriteString("    return vec4<f32>(input.position, 1.0);\n")
	b.WriteString("}\n\n")

	b.WriteString("@fragment\n")
	if fs.AlphaMask {
		b.WriteString("fn fs_main() -> @location(0) vec4<f32> {\n    discard;\n    return vec4<f32>(0.0);\n}\n")
	} else {
		b.WriteString("fn fs_main() -> @location(0) vec4<f32> {\n    return vec4<f32>(1.0);\n}\n")
	}

	source := b.String()
	if _, err := naga.Compile(source); err != nil {
		return "", fmt.Errorf("shadergen: generated shader failed validation: %w", err)
	}
	return source, nil
}

// capitalize upper-cases the first rune of s; used only to turn a binding
// name into its WGSL uniform struct type name.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// featureKey renders fs into a deterministic string for cache lookups.
func featureKey(fs FeatureSet, atlasCount int) string {
	var b strings.Builder
	b.WriteString(strconv.FormatBool(fs.Attributes.Normal))
	b.WriteByte(':')
	b.WriteString(strconv.FormatBool(fs.Attributes.Tangent))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(fs.Attributes.ColorCount))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(fs.Attributes.TexCoordCount))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(fs.Attributes.JointSetCount))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(fs.MorphTargetCount))
	b.WriteByte(':')
	b.WriteString(strconv.FormatBool(fs.Instancing))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(fs.MaterialKind)))
	b.WriteByte(':')
	b.WriteString(strconv.FormatBool(fs.AlphaMask))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(fs.MSAASampleCount), 10))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(atlasCount))
	slots := make([]string, 0, len(fs.TextureUVIndices))
	for slot := range fs.TextureUVIndices {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	for _, slot := range slots {
		b.WriteByte(':')
		b.WriteString(slot)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(fs.TextureUVIndices[slot]))
	}
	return b.String()
}

// Cache memoizes generated-and-validated WGSL text behind a bounded LRU,
// the layer beneath pipelinecache's structural pipeline cache: repeated
// requests for the same feature set and atlas count pay the naga
// validation cost once. Entries are keyed by feature set, so two feature
// sets that generate identical text are each generated and validated.
type Cache struct {
	lru *lru.Cache[string, string]
}

// NewCache creates a shader-text cache holding up to capacity entries.
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = 128
	}
	l, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, fmt.Errorf("shadergen: failed to create cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// GetOrGenerate returns memoized WGSL text for fs, generating and
// validating it on a miss.
func (c *Cache) GetOrGenerate(fs FeatureSet, atlasCount int) (string, error) {
	key := featureKey(fs, atlasCount)
	if src, ok := c.lru.Get(key); ok {
		return src, nil
	}
	src, err := Generate(fs, atlasCount)
	if err != nil {
		return "", err
	}
	c.lru.Add(key, src)
	return src, nil
}
