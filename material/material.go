// Package material stores PBR (and simpler) material records addressed by
// MaterialKey, each carrying texture-slot indices into megatexture/texcache
// rather than raw texture data, plus optional extension blocks for the
// glTF KHR material extensions this renderer supports.
package material

import "github.com/gogpu/vbrenderer/gpuhandle"

// TextureSlot points a material's texture channel at a megatexture entry,
// the sampler it should be read through, the UV set it samples, and the
// transform applied to that UV before sampling.
type TextureSlot struct {
	Texture   gpuhandle.TextureKey
	Sampler   gpuhandle.SamplerKey
	UVSet     uint8
	Transform gpuhandle.TextureTransformKey
	Present   bool
}

// Kind is the closed set of material variants the renderer's shader
// permutations cover; each drives a distinct shadergen feature key.
type Kind uint8

const (
	KindPBR Kind = iota
	KindUnlit
	KindFullScreenQuad
	KindDebugNormals
)

// PBRCore is the glTF 2.0 metallic-roughness core every PBR material has,
// independent of any extension.
type PBRCore struct {
	BaseColorFactor       [4]float32
	MetallicFactor        float32
	RoughnessFactor       float32
	EmissiveFactor        [3]float32
	NormalScale           float32
	OcclusionStrength     float32
	AlphaCutoff           float32
	DoubleSided           bool
	AlphaBlend            bool

	BaseColorTexture         TextureSlot
	MetallicRoughnessTexture TextureSlot
	NormalTexture            TextureSlot
	OcclusionTexture         TextureSlot
	EmissiveTexture          TextureSlot
}

// Clearcoat is KHR_materials_clearcoat.
type Clearcoat struct {
	Factor          float32
	RoughnessFactor float32
	Texture         TextureSlot
	RoughnessTexture TextureSlot
	NormalTexture   TextureSlot
}

// Sheen is KHR_materials_sheen.
type Sheen struct {
	ColorFactor     [3]float32
	RoughnessFactor float32
	ColorTexture    TextureSlot
	RoughnessTexture TextureSlot
}

// IOR is KHR_materials_ior.
type IOR struct {
	Value float32
}

// Specular is KHR_materials_specular.
type Specular struct {
	Factor        float32
	ColorFactor   [3]float32
	Texture       TextureSlot
	ColorTexture  TextureSlot
}

// Transmission is KHR_materials_transmission.
type Transmission struct {
	Factor  float32
	Texture TextureSlot
}

// Volume is KHR_materials_volume.
type Volume struct {
	ThicknessFactor     float32
	ThicknessTexture    TextureSlot
	AttenuationDistance float32
	AttenuationColor    [3]float32
}

// Iridescence is KHR_materials_iridescence.
type Iridescence struct {
	Factor               float32
	Texture              TextureSlot
	IOR                  float32
	ThicknessMinimum     float32
	ThicknessMaximum     float32
	ThicknessTexture     TextureSlot
}

// Anisotropy is KHR_materials_anisotropy.
type Anisotropy struct {
	Strength float32
	Rotation float32
	Texture  TextureSlot
}

// Dispersion is KHR_materials_dispersion.
type Dispersion struct {
	Value float32
}

// Extensions bundles every optional KHR material extension block a PBR
// material may carry. Nil pointers mean the extension is absent.
type Extensions struct {
	Clearcoat    *Clearcoat
	Sheen        *Sheen
	IOR          *IOR
	Specular     *Specular
	Transmission *Transmission
	Volume       *Volume
	Iridescence  *Iridescence
	Anisotropy   *Anisotropy
	Dispersion   *Dispersion
}

// Material is the tagged-variant material record addressed by MaterialKey.
// Only the field matching Kind is meaningful; the others are zero.
type Material struct {
	Kind Kind

	PBR        PBRCore
	Extensions Extensions

	// UnlitBaseColorTexture and UnlitBaseColorFactor are used when Kind == KindUnlit.
	UnlitBaseColorTexture TextureSlot
	UnlitBaseColorFactor  [4]float32
}

// Table stores materials behind stable handles.
type Table struct {
	table *gpuhandle.Table[Material]
}

// NewTable creates an empty material table.
func NewTable() *Table {
	return &Table{table: gpuhandle.New[Material]()}
}

// Insert adds a material and returns its handle.
func (t *Table) Insert(m Material) gpuhandle.MaterialKey {
	return gpuhandle.MaterialKey{Handle: t.table.Insert(m)}
}

// Get resolves a material handle.
func (t *Table) Get(key gpuhandle.MaterialKey) (Material, bool) {
	return t.table.Get(key.Handle)
}

// Remove deletes a material.
func (t *Table) Remove(key gpuhandle.MaterialKey) bool {
	return t.table.Remove(key.Handle)
}

// Len reports how many materials are stored.
func (t *Table) Len() int { return t.table.Len() }
